// Package main is the entry point for the todo service.
package main

import (
	"fmt"
	"log"

	"github.com/Ali-Uen/todo-service/internal/config"
	"github.com/Ali-Uen/todo-service/internal/handlers"
	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/repository"
	"github.com/Ali-Uen/todo-service/internal/routes"
	"github.com/Ali-Uen/todo-service/internal/service"
	"github.com/Ali-Uen/todo-service/pkg/database"
	"github.com/Ali-Uen/todo-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// @title Todo Service API
// @version 1.0
// @description Task tracking backend with JWT and Google OAuth authentication
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load .env in local development; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize database
	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  "disable",
		TimeZone: "UTC",
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Todo{}); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	// Initialize services
	jwtService, err := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	if err != nil {
		log.Fatal("Failed to create JWT service:", err)
	}
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userService, jwtService)
	todoService := service.NewTodoService(todoRepo, redisClient)

	// Initialize handlers
	h := routes.Handlers{
		Auth:   handlers.NewAuthHandler(authService, userService),
		Todo:   handlers.NewTodoHandler(todoService),
		Health: handlers.NewHealthHandler(db, redisClient),
	}
	if cfg.OAuthEnabled() {
		oauthConfig := &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
		h.OAuth = handlers.NewOAuthHandler(authService, oauthConfig, cfg.FrontendURL)
	} else {
		log.Print("Google OAuth not configured, external sign-in disabled")
	}

	// Setup router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	routes.Setup(router, cfg, h, authService)

	// Start server
	log.Printf("Starting todo service on port %s", cfg.Port)
	if err := router.Run(fmt.Sprintf(":%s", cfg.Port)); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
