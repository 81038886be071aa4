package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/pbdna/pbdna_backend/config"
	"github.com/pbdna/pbdna_backend/metrics"
	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/models"
	"github.com/pbdna/pbdna_backend/repositories"
	"github.com/pbdna/pbdna_backend/utils"
	"github.com/pbdna/pbdna_backend/websocket"
)

// userStore is the slice of the user repository the auth flows need.
type userStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchActivity(ctx context.Context, id uuid.UUID) error
	EmailOrPhoneExists(ctx context.Context, email, phone string) (bool, bool, error)
}

// otpStore is the slice of the OTP repository the auth flows need.
type otpStore interface {
	Create(ctx context.Context, otp *models.PhoneOTPLog) error
	Verify(ctx context.Context, phone, code string, maxAttempts int) (uuid.UUID, error)
	InvalidatePending(ctx context.Context, phone string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuthController contains authentication logic
type AuthController struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	users  userStore
	otps   otpStore
	hub    *websocket.Hub
	cfg    *config.Config
	email  *utils.EmailService
	logger *log.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(db *pgxpool.Pool, rdb *redis.Client, hub *websocket.Hub, cfg *config.Config) *AuthController {
	ac := &AuthController{
		DB:     db,
		Redis:  rdb,
		users:  repositories.NewUserRepository(db),
		otps:   repositories.NewOTPRepository(db),
		hub:    hub,
		cfg:    cfg,
		email:  utils.NewEmailService(),
		logger: log.New(os.Stdout, "[AUTH] ", log.LstdFlags),
	}

	// Start the OTP cleanup routine
	go ac.startOTPCleanupRoutine()

	return ac
}

// Signup registers a new user in pending state and sends a verification code
// to their phone.
func (ac *AuthController) Signup(c echo.Context) error {
	var req models.SignupRequest
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

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	phone, err := utils.SanitizePhone(req.Phone)
	if err != nil || phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	ctx := c.Request().Context()

	emailExists, phoneExists, err := ac.users.EmailOrPhoneExists(ctx, email, phone)
	if err != nil {
		ac.logger.Printf("Signup existence check failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if emailExists {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email already registered",
		})
	}
	if phoneExists {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Phone number already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Error hashing password",
		})
	}

	user := &models.User{
		Email:    email,
		Password: string(hashedPassword),
		FullName: utils.SanitizeInput(req.FullName),
		Phone:    phone,
	}
	if err := ac.users.Create(ctx, user); err != nil {
		ac.logger.Printf("Failed to create user: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create account",
		})
	}

	if err := ac.issueOTP(ctx, user, models.OTPPurposeSignup); err != nil {
		ac.logger.Printf("Failed to issue OTP for %s: %v", phone, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send verification code",
		})
	}

	ac.logger.Printf("Signup pending verification for %s", email)
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Account created. A verification code was sent to your phone.",
		Data:    map[string]string{"userId": user.ID.String()},
	})
}

// Login authenticates with email and password. Users whose phone is not yet
// verified get a fresh code instead of tokens.
func (ac *AuthController) Login(c echo.Context) error {
	var req models.LoginRequest
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

	ctx := c.Request().Context()
	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	user, err := ac.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		ac.logger.Printf("Login lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is inactive",
		})
	}

	if !user.PhoneVerified {
		if err := ac.issueOTP(ctx, user, models.OTPPurposeLogin); err != nil {
			ac.logger.Printf("Failed to reissue OTP for %s: %v", user.Phone, err)
		}
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Phone not verified. A new verification code was sent.",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.String(), user.Email, user.SubscriptionTier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	_ = ac.users.TouchActivity(ctx, user.ID)
	user.Password = ""

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.AuthData{
			Token:        token,
			RefreshToken: refreshToken,
			User:         user,
		},
	})
}

// VerifyOTP redeems a phone verification code. On success the user's
// verification status flips to verified and tokens are returned.
func (ac *AuthController) VerifyOTP(c echo.Context) error {
	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	phone, err := utils.SanitizePhone(utils.SanitizeInput(req.Phone))
	if err != nil || phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Phone number is required for OTP verification",
		})
	}
	code := utils.SanitizeInput(req.OTP)

	ctx := c.Request().Context()
	ac.logger.Printf("Verifying OTP for phone: %s", phone)

	if err := utils.ValidateOTPAttempts(ctx, phone, ac.Redis); err != nil {
		metrics.OTPVerifications.WithLabelValues("too_many_attempts").Inc()
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts. Try again later.",
		})
	}

	userID, err := ac.otps.Verify(ctx, phone, code, ac.cfg.OTPMaxAttempts)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrOTPExpired):
			metrics.OTPVerifications.WithLabelValues("expired").Inc()
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "OTP expired",
			})
		case errors.Is(err, repositories.ErrOTPTooManyAttempts):
			metrics.OTPVerifications.WithLabelValues("too_many_attempts").Inc()
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many attempts. Request a new code.",
			})
		case errors.Is(err, repositories.ErrOTPInvalid), errors.Is(err, repositories.ErrOTPNotFound):
			metrics.OTPVerifications.WithLabelValues("invalid").Inc()
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid OTP",
			})
		default:
			ac.logger.Printf("Database error during OTP verification: %v", err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Database error",
			})
		}
	}

	metrics.OTPVerifications.WithLabelValues("verified").Inc()
	ac.hub.NotifyPhoneVerified(userID)

	user, err := ac.users.FindByID(ctx, userID)
	if err == nil && ac.email.Configured() {
		go func(to, name string) {
			if sendErr := ac.email.SendWelcomeEmail(to, name); sendErr != nil {
				ac.logger.Printf("Welcome email failed: %v", sendErr)
			}
		}(user.Email, user.FullName)
	}
	if err != nil {
		ac.logger.Printf("User lookup after verification failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.String(), user.Email, user.SubscriptionTier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Phone verified successfully",
		Data: models.AuthData{
			Token:        token,
			RefreshToken: refreshToken,
			User:         user,
		},
	})
}

// ResendOTP invalidates outstanding codes for the phone and sends a new one.
func (ac *AuthController) ResendOTP(c echo.Context) error {
	var req models.ResendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	phone, err := utils.SanitizePhone(utils.SanitizeInput(req.Phone))
	if err != nil || phone == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid phone number",
		})
	}

	ctx := c.Request().Context()

	user, err := ac.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Do not reveal whether a phone is registered
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "If this phone is registered, a new code was sent.",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	if user.PhoneVerified {
		// Same response as an unknown number; a 4xx here would confirm
		// the phone is registered
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "If this phone is registered, a new code was sent.",
		})
	}

	if err := ac.issueOTP(ctx, user, models.OTPPurposeSignup); err != nil {
		if errors.Is(err, utils.ErrOTPCooldown) || errors.Is(err, utils.ErrOTPRequestLimit) {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: err.Error(),
			})
		}
		ac.logger.Printf("Failed to resend OTP for %s: %v", phone, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send verification code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "If this phone is registered, a new code was sent.",
	})
}

// Logout blacklists the presented token until it would have expired.
func (ac *AuthController) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == "" || tokenString == authHeader {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No token provided",
		})
	}

	middleware.BlacklistToken(tokenString, time.Now().Add(24*time.Hour))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ValidateToken checks the presented token and returns the stored user.
func (ac *AuthController) ValidateToken(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		tokenString = ""
	}

	resp, err := utils.ValidateToken(c.Request().Context(), tokenString, ac.users)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, resp)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (ac *AuthController) RefreshToken(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Refresh token is required",
		})
	}

	resp, err := utils.ValidateToken(c.Request().Context(), req.RefreshToken, ac.users)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}
	if !resp.Valid || resp.User == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid refresh token",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(resp.User.ID.String(), resp.User.Email, resp.User.SubscriptionTier)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	// Refresh tokens are single-use
	expiry := time.Now().Add(7 * 24 * time.Hour)
	if resp.ExpiresAt != nil {
		expiry = *resp.ExpiresAt
	}
	middleware.BlacklistToken(req.RefreshToken, expiry)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Token refreshed",
		Data: models.AuthData{
			Token:        token,
			RefreshToken: refreshToken,
		},
	})
}

// CheckEmailOrPhoneExists lets the signup form check availability.
func (ac *AuthController) CheckEmailOrPhoneExists(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	phone, _ := utils.SanitizePhone(req.Phone)
	emailExists, phoneExists, err := ac.users.EmailOrPhoneExists(c.Request().Context(), strings.ToLower(strings.TrimSpace(req.Email)), phone)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability check",
		Data: map[string]bool{
			"emailExists": emailExists,
			"phoneExists": phoneExists,
		},
	})
}

// issueOTP generates, persists and sends a new code for the user's phone,
// expiring anything still pending.
func (ac *AuthController) issueOTP(ctx context.Context, user *models.User, purpose string) error {
	if err := utils.ValidateOTPRequestRate(ctx, user.Phone, ac.Redis); err != nil {
		return err
	}

	if err := ac.otps.InvalidatePending(ctx, user.Phone); err != nil {
		return err
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return err
	}

	otp := &models.PhoneOTPLog{
		UserID:    user.ID,
		Phone:     user.Phone,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ac.cfg.OTPExpiry),
	}
	if err := ac.otps.Create(ctx, otp); err != nil {
		return err
	}

	if err := utils.SendOTPViaSMS(user.Phone, code); err != nil {
		// Fall back to email delivery when the SMS gateway is down
		if ac.email.Configured() {
			if emailErr := ac.email.SendOTPEmail(user.Email, code); emailErr == nil {
				metrics.OTPIssued.WithLabelValues("email").Inc()
				return nil
			}
		}
		return err
	}

	metrics.OTPIssued.WithLabelValues("sms").Inc()
	return nil
}

// startOTPCleanupRoutine periodically expires stale pending codes.
func (ac *AuthController) startOTPCleanupRoutine() {
	for {
		time.Sleep(10 * time.Minute)
		n, err := ac.otps.PurgeExpired(context.Background())
		if err != nil {
			ac.logger.Printf("OTP cleanup failed: %v", err)
			continue
		}
		if n > 0 {
			ac.logger.Printf("Expired %d stale OTP codes", n)
		}
	}
}
