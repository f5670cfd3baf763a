package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booktrack/internal/config"
	"github.com/mrlokans/booktrack/internal/database/users"
	"github.com/mrlokans/booktrack/internal/services"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWithCORS(t *testing.T) {
	t.Run("no origins leaves the handler alone", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.Header.Set("Origin", "https://app.example.com")
		WithCORS(okHandler(), nil).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin gets credentials", func(t *testing.T) {
		handler := WithCORS(okHandler(), []string{"https://app.example.com"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		handler.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("other origins are not echoed", func(t *testing.T) {
		handler := WithCORS(okHandler(), []string{"https://app.example.com"})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		handler.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCSRFSecret(t *testing.T) {
	secret, err := csrfSecret(config.Auth{SessionSecret: "00ff"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, secret)

	secret, err = csrfSecret(config.Auth{SessionSecret: "not-hex"})
	require.NoError(t, err)
	assert.Equal(t, []byte("not-hex"), secret)

	secret, err = csrfSecret(config.Auth{})
	require.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestNewApplication(t *testing.T) {
	cfg := &config.Config{
		Database: config.Database{
			Driver:   config.DriverSQLite,
			Path:     filepath.Join(t.TempDir(), "booktrack.db"),
			LogLevel: "silent",
		},
		Auth: config.Auth{
			SessionLifetime:  time.Hour,
			BcryptCost:       4,
			MaxLoginAttempts: 5,
			RateLimitWindow:  time.Minute,
			LockoutDuration:  time.Minute,
		},
		Library: config.Library{LoanDays: 14, ReservationDays: 7, DailyFine: 1, AtomicWrites: true},
	}

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.DB.Ping(context.Background()))

	categories, err := app.Catalog.Categories(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, categories)

	sent, err := app.Reminders.SendDueReminders(context.Background(), 2)
	require.NoError(t, err)
	assert.Zero(t, sent)

	_, err = app.Users.List(context.Background(), services.Actor{}, users.Filter{})
	assert.ErrorIs(t, err, services.ErrAdminRequired)
}
