package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/controllers"
	"github.com/pbdna/pbdna_backend/middleware"
)

// RegisterAgentRoutes sets up the authenticated content-job routes
func RegisterAgentRoutes(e *echo.Echo, agentController *controllers.AgentController) {
	jobs := e.Group("/api/jobs")
	jobs.Use(middleware.JWTMiddleware())

	jobs.POST("", agentController.EnqueueJob)
	jobs.GET("/:id", agentController.GetJobStatus)
	jobs.GET("/templates", agentController.ListTemplates)
}
