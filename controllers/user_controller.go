package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/models"
	"github.com/pbdna/pbdna_backend/repositories"
)

// UserController handles profile and subscription operations
type UserController struct {
	DB     *pgxpool.Pool
	users  *repositories.UserRepository
	logger *log.Logger
}

// NewUserController creates a new user controller
func NewUserController(db *pgxpool.Pool, userRepo *repositories.UserRepository) *UserController {
	return &UserController{
		DB:     db,
		users:  userRepo,
		logger: log.New(os.Stdout, "[USER] ", log.LstdFlags),
	}
}

// GetProfile returns the authenticated user's profile
func (uc *UserController) GetProfile(c echo.Context) error {
	userID, err := uuid.Parse(middleware.GetUserIDFromToken(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	user, err := uc.users.FindByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		uc.logger.Printf("Profile lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved",
		Data:    user,
	})
}

// UpdateSubscription changes the authenticated user's subscription tier
func (uc *UserController) UpdateSubscription(c echo.Context) error {
	userID, err := uuid.Parse(middleware.GetUserIDFromToken(c))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
	}

	var req struct {
		Tier   string `json:"tier" validate:"required,oneof=free starter professional executive"`
		Status string `json:"status"`
	}
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
	if req.Status == "" {
		req.Status = "active"
	}

	if err := uc.users.UpdateSubscription(c.Request().Context(), userID, req.Tier, req.Status); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		uc.logger.Printf("Subscription update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Subscription updated",
	})
}
