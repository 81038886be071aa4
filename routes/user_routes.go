package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/controllers"
	"github.com/pbdna/pbdna_backend/middleware"
)

// RegisterUserRoutes sets up authenticated profile routes
func RegisterUserRoutes(e *echo.Echo, userController *controllers.UserController) {
	users := e.Group("/api/users")
	users.Use(middleware.JWTMiddleware())

	users.GET("/me", userController.GetProfile)
	users.PUT("/me/subscription", userController.UpdateSubscription)
}
