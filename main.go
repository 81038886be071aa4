package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/pbdna/pbdna_backend/config"
	"github.com/pbdna/pbdna_backend/controllers"
	"github.com/pbdna/pbdna_backend/middleware"
	"github.com/pbdna/pbdna_backend/migrations"
	"github.com/pbdna/pbdna_backend/repositories"
	"github.com/pbdna/pbdna_backend/reporting"
	"github.com/pbdna/pbdna_backend/robots"
	"github.com/pbdna/pbdna_backend/routes"
	"github.com/pbdna/pbdna_backend/services"
	"github.com/pbdna/pbdna_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()
	if cfg.IsProduction() {
		if err := cfg.Validate(); err != nil {
			log.Fatal("Configuration error: ", err)
		}
	}

	// Initialize error reporting
	reporting.Init(cfg.Env)
	defer reporting.Flush()

	// Connect to dependencies; each connect gates startup the way the
	// compose health checks gate the container
	db := config.ConnectDB(cfg.DatabaseURL)
	defer db.Close()

	if err := migrations.Apply(context.Background(), db); err != nil {
		log.Fatal("Migration error: ", err)
	}

	rdb := config.ConnectRedis(cfg.RedisURL)
	defer config.CloseRedis()

	const agentWorkers = 4

	brokerConn := config.ConnectBroker(cfg.RabbitMQURL)
	broker, err := services.NewBroker(brokerConn, log.Default(), agentWorkers)
	if err != nil {
		log.Fatal("Broker setup error: ", err)
	}
	defer broker.Close()

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Start the agent workers
	agentService := services.NewAgentService(broker, rdb, wsHub, cfg)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go func() {
		if err := agentService.Start(workerCtx, agentWorkers); err != nil && err != context.Canceled {
			log.Printf("Agent workers stopped: %v", err)
		}
	}()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(reporting.Middleware())
	e.HTTPErrorHandler = reporting.ErrorHandler(e)
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	secConfig := middleware.SecurityConfig{AllowInlineJS: !cfg.IsProduction()}
	if cfg.SupabaseURL != "" {
		secConfig.AllowedDomains = []string{cfg.SupabaseURL}
	}
	e.Use(middleware.SecurityHeadersWithConfig(secConfig))

	// Token blacklist cleanup
	go middleware.CleanupBlacklist()

	// Initialize repositories and controllers
	userRepo := repositories.NewUserRepository(db)
	authController := controllers.NewAuthController(db, rdb, wsHub, cfg)
	userController := controllers.NewUserController(db, userRepo)
	agentController := controllers.NewAgentController(agentService)

	// Register routes
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://personalbranddna.com"
	}
	routes.SetupRoutes(e, routes.HealthDeps{DB: db, Redis: rdb, Broker: broker}, wsHub, robots.DefaultPolicy(baseURL))
	routes.RegisterAuthRoutes(e, authController)
	routes.RegisterUserRoutes(e, userController)
	routes.RegisterAgentRoutes(e, agentController)

	// Shut down workers cleanly on SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		stopWorkers()
	}()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
