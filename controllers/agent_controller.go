package controllers

import (
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/models"
	"github.com/pbdna/pbdna_backend/services"
)

// AgentController exposes the content-job pipeline over HTTP
type AgentController struct {
	agents *services.AgentService
	logger *log.Logger
}

// NewAgentController creates a new agent controller
func NewAgentController(agents *services.AgentService) *AgentController {
	return &AgentController{
		agents: agents,
		logger: log.New(os.Stdout, "[JOBS] ", log.LstdFlags),
	}
}

// EnqueueJob accepts a content job and publishes it to the broker
func (jc *AgentController) EnqueueJob(c echo.Context) error {
	userID, err := uuid.Parse(middleware.GetUserIDFromToken(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req models.ContentJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	job := &models.ContentJob{
		UserID:   userID,
		Kind:     req.Kind,
		Topic:    req.Topic,
		Platform: req.Platform,
		Template: req.Template,
		Source:   req.Source,
		AudioURL: req.AudioURL,
	}
	if err := jc.agents.Enqueue(c.Request().Context(), job); err != nil {
		jc.logger.Printf("Failed to enqueue job: %v", err)
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Job queue unavailable",
		})
	}

	return c.JSON(http.StatusAccepted, models.Response{
		Status:  http.StatusAccepted,
		Message: "Job queued",
		Data:    map[string]string{"jobId": job.ID.String()},
	})
}

// GetJobStatus returns the cached result for a job
func (jc *AgentController) GetJobStatus(c echo.Context) error {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid job ID",
		})
	}

	result, err := jc.agents.JobResult(c.Request().Context(), jobID)
	if err != nil {
		jc.logger.Printf("Job status lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Cache error",
		})
	}
	if result == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Job not found or result expired",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Job status",
		Data:    result,
	})
}

// ListTemplates returns the built-in content templates
func (jc *AgentController) ListTemplates(c echo.Context) error {
	contentType := c.QueryParam("contentType")
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Templates",
		Data:    services.DefaultTemplates(contentType),
	})
}
