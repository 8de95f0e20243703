package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/opsdeck/opsdeck/internal/api/handlers"
	"github.com/opsdeck/opsdeck/internal/api/middleware"
	"github.com/opsdeck/opsdeck/internal/audit"
	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/service"
)

// NewRouter creates and configures the Gin router. Every /superadmin route
// composes authentication with the superadmin capability check.
func NewRouter(cfg *config.Config, authenticator auth.Authenticator, svc *service.AdminService, recorder *audit.Recorder) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware())
	router.Use(corsMiddleware())

	userHandler := handlers.NewUserHandler(svc)
	roleHandler := handlers.NewRoleHandler(svc)
	auditHandler := handlers.NewAuditHandler(recorder)
	analyticsHandler := handlers.NewAnalyticsHandler(svc)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.POST("/auth/login", handlers.Login(authenticator))
	}

	// Authenticated self-service
	authed := router.Group("/api/v1")
	authed.Use(authenticator.Middleware())
	{
		authed.GET("/auth/me", handlers.GetCurrentUser(authenticator))
	}

	// Superadmin-only routes
	superadmin := router.Group("/api/v1/superadmin")
	superadmin.Use(authenticator.Middleware())
	superadmin.Use(middleware.RequireSuperadmin())
	{
		superadmin.GET("/users", userHandler.ListUsers)
		superadmin.POST("/users", userHandler.CreateUser)
		superadmin.GET("/users/:id", userHandler.GetUser)
		superadmin.PUT("/users/:id", userHandler.UpdateUser)
		superadmin.DELETE("/users/:id", userHandler.DeleteUser)

		superadmin.GET("/roles", roleHandler.ListRoles)
		superadmin.POST("/roles", roleHandler.CreateRole)
		superadmin.PUT("/roles/:id", roleHandler.UpdateRole)
		superadmin.POST("/assign-role", roleHandler.AssignRole)

		superadmin.GET("/audit-logs", auditHandler.ListAuditLogs)
		superadmin.GET("/analytics/summary", analyticsHandler.GetSummary)
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	slog.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		slog.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
