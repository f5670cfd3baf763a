package http

import (
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/database"
	"github.com/mrlokans/booktrack/internal/services"
	"github.com/mrlokans/booktrack/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Version  string

	// Domain services
	Catalog       *services.CatalogService
	Circulation   *services.CirculationService
	Bookmarks     *services.BookmarkService
	Notifications *services.NotificationService
	Users         *services.UserService
	Logs          *services.LogService
	Dashboard     *services.DashboardService

	// Authentication
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager

	// CSRF protection is enabled when the secret is non-empty
	CSRFSecret    []byte
	SecureCookies bool

	// Task queue client (optional)
	TaskClient   *tasks.Client
	TaskDefaults tasks.Defaults
}
