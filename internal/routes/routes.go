// Package routes defines HTTP routes for the todo service.
package routes

import (
	"github.com/Ali-Uen/todo-service/docs"
	"github.com/Ali-Uen/todo-service/internal/config"
	"github.com/Ali-Uen/todo-service/internal/handlers"
	"github.com/Ali-Uen/todo-service/internal/middleware"
	"github.com/Ali-Uen/todo-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth   *handlers.AuthHandler
	OAuth  *handlers.OAuthHandler
	Todo   *handlers.TodoHandler
	Health *handlers.HealthHandler
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, cfg *config.Config, h Handlers, authService service.AuthService) {
	router.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	router.Use(middleware.Metrics())

	// Health checks
	router.GET("/health", h.Health.Check)
	router.GET("/health/ready", h.Health.Ready)
	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(authService), h.Auth.Me)

		if h.OAuth != nil {
			auth.GET("/google", h.OAuth.GoogleLogin)
			auth.GET("/google/callback", h.OAuth.GoogleCallback)
		}
	}

	// Todo routes, all behind the access-token gate
	todos := router.Group("/api/v1/todos")
	todos.Use(middleware.RequireAuth(authService))
	{
		todos.GET("", h.Todo.List)
		todos.POST("", h.Todo.Create)
		todos.GET("/search", h.Todo.Search)
		todos.GET("/statistics", h.Todo.Statistics)
		todos.GET("/:id", h.Todo.Get)
		todos.PUT("/:id", h.Todo.Update)
		todos.DELETE("/:id", h.Todo.Delete)
	}

	// Swagger documentation (only if SWAGGER_HOST is configured)
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
}
