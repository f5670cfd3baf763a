// Package audit records user and system actions in the system log.
//
// Writes that belong to a multi-step change go through WithTx so the log
// entry commits or rolls back with the change it describes.
package audit

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/database/logs"
	"github.com/mrlokans/booktrack/internal/entities"
)

const maxDetailsLen = 2000

// Event is one system log entry. UserID 0 means the system itself.
type Event struct {
	UserID  uint
	Action  string
	Details string
	Level   entities.LogLevel
	IP      string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo *logs.Repository
}

// NewService creates a new audit service.
func NewService(repo *logs.Repository) *Service {
	return &Service{repo: repo}
}

// WithTx returns a service that writes through tx.
func (s *Service) WithTx(tx *gorm.DB) *Service {
	return &Service{repo: s.repo.WithTx(tx)}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, e Event) error {
	return s.repo.LogEvent(ctx, e.entry())
}

// LogAsync records an event in the background (non-blocking). Failures are
// only printed; use Log when the entry must be part of a transaction.
func (s *Service) LogAsync(e Event) {
	entry := e.entry()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.LogEvent(ctx, entry); err != nil {
			log.Printf("Failed to log audit event %q: %v", entry.Action, err)
		}
	}()
}

// Info records an informational action by a user.
func (s *Service) Info(ctx context.Context, userID uint, action, ip string) error {
	return s.Log(ctx, Event{UserID: userID, Action: action, Level: entities.LogLevelInfo, IP: ip})
}

// Warning records a destructive action by a user.
func (s *Service) Warning(ctx context.Context, userID uint, action, ip string) error {
	return s.Log(ctx, Event{UserID: userID, Action: action, Level: entities.LogLevelWarning, IP: ip})
}

// DeleteOlderThan removes entries older than retention and reports how many went.
func (s *Service) DeleteOlderThan(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, now.Add(-retention))
}

func (e Event) entry() *entities.SystemLog {
	entry := &entities.SystemLog{
		Action:    e.Action,
		Details:   truncate(e.Details, maxDetailsLen),
		Level:     e.Level,
		IPAddress: e.IP,
	}
	if !entry.Level.Valid() {
		entry.Level = entities.LogLevelInfo
	}
	if e.UserID != 0 {
		id := e.UserID
		entry.UserID = &id
	}
	return entry
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
