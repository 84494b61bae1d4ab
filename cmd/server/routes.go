package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tasktracker/internal/handlers"
	"github.com/huangang/tasktracker/internal/middleware"
	"github.com/huangang/tasktracker/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	db := svc.db

	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.Prometheus())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	r.GET("/health", handlers.NewHealthHandler(db).CheckHealth)
	r.GET("/metrics", handlers.Metrics(svc.gatherer))

	authHandler := handlers.NewAuthHandler(db, svc.cfg)
	userHandler := handlers.NewUserHandler(db)
	projectHandler := handlers.NewProjectHandler(db)
	taskHandler := handlers.NewTaskHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", svc.authLimiter.Middleware(), authHandler.Register)
			auth.POST("/login", svc.authLimiter.Middleware(), authHandler.Login)
			auth.GET("/config", authHandler.GetAuthConfig)
		}

		// Protected routes; the stored role replaces the token's claim.
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.LoadCaller(db))
		{
			// Auth
			protected.GET("/auth/me", authHandler.GetCurrentUser)
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			// Users
			protected.GET("/users", userHandler.List)

			// Projects
			protected.GET("/projects", projectHandler.List)
			protected.POST("/projects", projectHandler.Create)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.PUT("/projects/:id", projectHandler.Update)
			protected.DELETE("/projects/:id", projectHandler.Delete)

			// Tasks
			protected.GET("/tasks", taskHandler.List)
			protected.POST("/tasks", taskHandler.Create)
			protected.GET("/tasks/:id", taskHandler.GetByID)
			protected.PUT("/tasks/:id", taskHandler.Update)
			protected.DELETE("/tasks/:id", taskHandler.Delete)

			// Dashboard
			protected.GET("/dashboard", dashboardHandler.Get)
		}
	}
}
