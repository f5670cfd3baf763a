package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		App
		Database
		Auth
		Library
		Tasks
		Maintenance
		Global
	}

	HTTP struct {
		Port               int32
		Host               string
		CORSAllowedOrigins []string
	}
	App struct {
		Env Environment
	}
	Database struct {
		Driver   DatabaseDriver
		Path     string // SQLite file
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
		LogLevel string // silent, error, warn, info
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool
		CSRFEnabled     bool

		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Library struct {
		LoanDays        int
		ReservationDays int
		DailyFine       float64
		AtomicWrites    bool // Wrap borrow/return/reserve/cancel chains in one transaction
		ReservedPickup  bool // Holder of an available reservation may borrow the reserved copy
	}
	Tasks struct {
		Enabled           bool
		DatabasePath      string
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		RemindersEnabled   bool
		RemindersSchedule  string // Cron format: "0 8 * * *" = daily at 08:00
		RemindersDaysAhead int
		LogRetentionDays   int
		LogCleanupSchedule string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// DSN returns the PostgreSQL connection string built from the DB_* settings.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// loadDotenv reads an optional .env file into the process environment.
// Variables already set in the environment win.
func loadDotenv() {
	path := os.Getenv("BOOKTRACK_ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("WARNING: could not load %s: %v", path, err)
		return
	}
	log.Printf("Loaded environment from %s", path)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if v := strings.TrimRight(strings.TrimSpace(p), "/"); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func NewConfig() *Config {
	loadDotenv()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_allowed_origins", "")
	v.SetDefault("app_env", string(EnvDevelopment))
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("db_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "booktrack")
	v.SetDefault("db_pass", "")
	v.SetDefault("db_name", "booktrack")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_log_level", "warn")

	v.SetDefault("auth_session_secret", "")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", false)
	v.SetDefault("auth_csrf_enabled", false)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	v.SetDefault("library_loan_days", DefaultLoanDays)
	v.SetDefault("library_reservation_days", DefaultReservationDays)
	v.SetDefault("library_daily_fine", DefaultDailyFine)
	v.SetDefault("library_atomic_writes", true)
	v.SetDefault("library_reserved_pickup", true)

	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_database_path", "")
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("reminders_enabled", true)
	v.SetDefault("reminders_schedule", "0 8 * * *")
	v.SetDefault("reminders_days_ahead", 2)
	v.SetDefault("log_retention_days", 90)
	v.SetDefault("log_cleanup_schedule", "0 3 * * *")

	cfg := &Config{
		HTTP: HTTP{
			Port:               v.GetInt32("PORT"),
			Host:               v.GetString("HOST"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		App: App{
			Env: Environment(strings.ToLower(v.GetString("APP_ENV"))),
		},
		Database: Database{
			Driver:   DatabaseDriver(strings.ToLower(v.GetString("DB_DRIVER"))),
			Path:     v.GetString("DATABASE_PATH"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			LogLevel: v.GetString("DB_LOG_LEVEL"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			CSRFEnabled:      v.GetBool("AUTH_CSRF_ENABLED"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Library: Library{
			LoanDays:        v.GetInt("LIBRARY_LOAN_DAYS"),
			ReservationDays: v.GetInt("LIBRARY_RESERVATION_DAYS"),
			DailyFine:       v.GetFloat64("LIBRARY_DAILY_FINE"),
			AtomicWrites:    v.GetBool("LIBRARY_ATOMIC_WRITES"),
			ReservedPickup:  v.GetBool("LIBRARY_RESERVED_PICKUP"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			DatabasePath:      v.GetString("TASKS_DATABASE_PATH"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			RemindersEnabled:   v.GetBool("REMINDERS_ENABLED"),
			RemindersSchedule:  v.GetString("REMINDERS_SCHEDULE"),
			RemindersDaysAhead: v.GetInt("REMINDERS_DAYS_AHEAD"),
			LogRetentionDays:   v.GetInt("LOG_RETENTION_DAYS"),
			LogCleanupSchedule: v.GetString("LOG_CLEANUP_SCHEDULE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}

	// Production always gets secure cookies, matching the old deployment.
	if cfg.IsProduction() {
		cfg.Auth.SecureCookies = true
	}
	return cfg
}

// Validate checks settings that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	switch c.App.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("unknown APP_ENV %q", c.App.Env))
	}

	if c.Library.LoanDays <= 0 {
		errs = append(errs, errors.New("LIBRARY_LOAN_DAYS must be positive"))
	}
	if c.Library.ReservationDays <= 0 {
		errs = append(errs, errors.New("LIBRARY_RESERVATION_DAYS must be positive"))
	}
	if c.Library.DailyFine < 0 {
		errs = append(errs, errors.New("LIBRARY_DAILY_FINE must not be negative"))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, expr := range map[string]string{
		"REMINDERS_SCHEDULE":   c.Maintenance.RemindersSchedule,
		"LOG_CLEANUP_SCHEDULE": c.Maintenance.LogCleanupSchedule,
	} {
		if _, err := parser.Parse(expr); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", name, expr, err))
		}
	}

	return errors.Join(errs...)
}
