package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/controllers"
)

// RegisterAuthRoutes sets up all authentication and public routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/logout", authController.Logout)
	e.POST("/api/auth/verify-otp", authController.VerifyOTP)
	e.POST("/api/auth/resend-otp", authController.ResendOTP)
	e.POST("/api/auth/check-exists", authController.CheckEmailOrPhoneExists)
	e.GET("/api/auth/validate-token", authController.ValidateToken)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)
}
