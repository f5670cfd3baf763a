package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/database/borrowings"
	"github.com/mrlokans/booktrack/internal/database/notifications"
	"github.com/mrlokans/booktrack/internal/entities"
)

// ReminderService produces due-date notifications for open loans.
type ReminderService struct {
	borrowings    *borrowings.Repository
	notifications *notifications.Repository
	audit         *audit.Service
	now           func() time.Time
}

// NewReminderService creates a ReminderService over db.
func NewReminderService(db *gorm.DB, auditService *audit.Service) *ReminderService {
	return &ReminderService{
		borrowings:    borrowings.NewRepository(db),
		notifications: notifications.NewRepository(db),
		audit:         auditService,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *ReminderService) SetClock(now func() time.Time) {
	s.now = now
}

// SendDueReminders notifies every borrower whose loan is due within
// daysAhead days or already overdue. A borrower gets at most one reminder
// per book per day. Returns the number of notifications created.
func (s *ReminderService) SendDueReminders(ctx context.Context, daysAhead int) (int, error) {
	if daysAhead < 0 {
		daysAhead = 0
	}
	now := s.now()
	today := startOfDay(now)
	cutoff := today.AddDate(0, 0, daysAhead)

	due, err := s.borrowings.DueBy(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list due borrowings: %w", err)
	}

	sent := 0
	for _, b := range due {
		exists, err := s.notifications.ExistsSince(ctx, b.UserID, b.BookID, entities.NotificationDue, today)
		if err != nil {
			return sent, fmt.Errorf("failed to check reminders: %w", err)
		}
		if exists {
			continue
		}

		n := reminderFor(b, today)
		n.CreatedAt = now
		if err := s.notifications.Create(ctx, n); err != nil {
			return sent, fmt.Errorf("failed to create reminder: %w", err)
		}
		sent++
	}

	if sent > 0 {
		s.audit.LogAsync(audit.Event{
			Action: fmt.Sprintf("Due reminders sent: %d", sent),
			Level:  entities.LogLevelInfo,
		})
	}
	return sent, nil
}

func reminderFor(b entities.Borrowing, today time.Time) *entities.Notification {
	title := "your book"
	if b.Book != nil {
		title = "'" + b.Book.Title + "'"
	}
	bookID := b.BookID

	n := &entities.Notification{
		UserID:   b.UserID,
		Type:     entities.NotificationDue,
		BookID:   &bookID,
		Title:    "Book Due Soon",
		Message:  fmt.Sprintf("Please return %s by %s.", title, b.DueDate.Format(dateLayout)),
		Priority: entities.PriorityMedium,
	}
	if b.DueDate.Before(today) {
		days := int(today.Sub(startOfDay(b.DueDate)).Hours() / 24)
		n.Title = "Book Overdue"
		n.Message = fmt.Sprintf("%s was due on %s and is %d day(s) overdue. Fines accrue daily until it is returned.",
			title, b.DueDate.Format(dateLayout), days)
		n.Priority = entities.PriorityHigh
	}
	return n
}
