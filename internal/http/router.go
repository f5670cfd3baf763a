package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.AuthHandlers != nil {
		api.Any("/auth", cfg.AuthHandlers.Handle)
	}
	if cfg.Catalog != nil {
		api.Any("/books", NewBooksController(cfg.Catalog).Handle)
	}
	if cfg.Circulation != nil {
		api.Any("/borrowings", NewBorrowingsController(cfg.Circulation).Handle)
		api.Any("/reservations", NewReservationsController(cfg.Circulation).Handle)
	}
	if cfg.Bookmarks != nil {
		api.Any("/bookmarks", NewBookmarksController(cfg.Bookmarks).Handle)
	}
	if cfg.Notifications != nil {
		api.Any("/notifications", NewNotificationsController(cfg.Notifications).Handle)
	}
	if cfg.Dashboard != nil {
		api.Any("/dashboard", NewDashboardController(cfg.Dashboard).Handle)
	}
	if cfg.Logs != nil {
		api.Any("/logs", NewLogsController(cfg.Logs).Handle)
	}
	if cfg.Users != nil {
		api.Any("/users", NewUsersController(cfg.Users).Handle)
	}

	// Task management endpoints
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.TaskDefaults)
		taskRoutes := api.Group("/tasks", auth.RequireRole("Admin access required", auth.TaskOperators...))
		taskRoutes.GET("/types", tasksController.ListTaskTypes)
		taskRoutes.GET("/:id", tasksController.GetTaskStatus)
		taskRoutes.POST("/:type/run", tasksController.RunTask)
	}

	return router
}
