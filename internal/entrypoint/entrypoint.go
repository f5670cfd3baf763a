package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"github.com/mrlokans/booktrack/internal/auth"
	"github.com/mrlokans/booktrack/internal/config"
	http_controllers "github.com/mrlokans/booktrack/internal/http"
	"github.com/mrlokans/booktrack/internal/scheduler"
	"github.com/mrlokans/booktrack/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// WithCORS wraps handler with CORS handling for the configured origins.
// Without origins the handler is returned unchanged.
func WithCORS(handler http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.CSRFTokenHeader, http_controllers.RequestIDHeader},
		ExposedHeaders:   []string{auth.CSRFTokenHeader, http_controllers.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
}

func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 can't be caught, so only SIGINT and SIGTERM are handled
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so no task outlives the database
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// csrfSecret decodes AUTH_SESSION_SECRET, or generates a throwaway one.
func csrfSecret(cfg config.Auth) ([]byte, error) {
	if cfg.SessionSecret != "" {
		secret, err := hex.DecodeString(cfg.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(cfg.SessionSecret)
		}
		return secret, nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting BookTrack v%s (%s)", version, cfg.App.Env)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, err := NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing application: %v", err)
		}
	}()

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var maintenance *scheduler.MaintenanceScheduler
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.ConfigFrom(cfg.Tasks, cfg.Database.Path))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.RegisterMaintenance(app.Reminders, app.Audit)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance)
		if err := maintenance.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled: reminders and log cleanup will not run")
	}

	var secret []byte
	if cfg.Auth.CSRFEnabled {
		secret, err = csrfSecret(cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       app.DB,
		Version:        version,
		Catalog:        app.Catalog,
		Circulation:    app.Circulation,
		Bookmarks:      app.Bookmarks,
		Notifications:  app.Notifications,
		Users:          app.Users,
		Logs:           app.Logs,
		Dashboard:      app.Dashboard,
		AuthHandlers:   auth.NewHandlers(app.Auth, app.Sessions, app.Limiter, app.Audit),
		AuthMiddleware: auth.NewMiddleware(app.Auth, app.Sessions),
		SessionManager: app.Sessions,
		CSRFSecret:     secret,
		SecureCookies:  cfg.Auth.SecureCookies,
		TaskClient:     taskClient,
		TaskDefaults: tasks.Defaults{
			ReminderDaysAhead: cfg.Maintenance.RemindersDaysAhead,
			LogRetentionDays:  cfg.Maintenance.LogRetentionDays,
		},
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(WithCORS(router, cfg.HTTP.CORSAllowedOrigins), cfg, onShutdown)
}
