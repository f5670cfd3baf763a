package entrypoint

import (
	"errors"
	"fmt"

	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database"
	"github.com/mrlokans/booktrack/internal/database/logs"
	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/services"
)

// Application holds the database and every service built on it. The server
// and the CLI commands share it.
type Application struct {
	DB       *database.Database
	Audit    *audit.Service
	Auth     *auth.Service
	Sessions *auth.SessionManager
	Limiter  *auth.RateLimiter

	Catalog       *services.CatalogService
	Circulation   *services.CirculationService
	Bookmarks     *services.BookmarkService
	Notifications *services.NotificationService
	Users         *services.UserService
	Logs          *services.LogService
	Dashboard     *services.DashboardService
	Reminders     *services.ReminderService
}

// NewApplication opens the database and wires the services.
func NewApplication(cfg *config.Config) (*Application, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessions, err := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}

	userRepo := users.NewRepository(db.DB)
	auditService := audit.NewService(logs.NewRepository(db.DB))
	authService := auth.NewService(userRepo, cfg.Auth)

	return &Application{
		DB:       db,
		Audit:    auditService,
		Auth:     authService,
		Sessions: sessions,
		Limiter:  auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth)),

		Catalog:       services.NewCatalogService(db.DB, auditService),
		Circulation:   services.NewCirculationService(db.DB, cfg.Library, auditService),
		Bookmarks:     services.NewBookmarkService(db.DB, auditService),
		Notifications: services.NewNotificationService(db.DB),
		Users:         services.NewUserService(userRepo, authService, auditService),
		Logs:          services.NewLogService(db.DB, auditService),
		Dashboard:     services.NewDashboardService(db.DB),
		Reminders:     services.NewReminderService(db.DB, auditService),
	}, nil
}

// Close stops the rate limiter and closes the database.
func (a *Application) Close() error {
	var errs []error
	if a.Limiter != nil {
		a.Limiter.Stop()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
