package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DueReminderSender notifies borrowers about upcoming and overdue returns.
type DueReminderSender interface {
	SendDueReminders(ctx context.Context, daysAhead int) (int, error)
}

// DueRemindersTask sends "due soon" and "overdue" notifications.
type DueRemindersTask struct {
	DaysAhead int `json:"days_ahead"`
}

// Config returns the queue configuration for reminder tasks.
func (t DueRemindersTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeDueReminders,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DueRemindersProcessor creates a processor function for DueRemindersTask.
func DueRemindersProcessor(sender DueReminderSender) backlite.QueueProcessor[DueRemindersTask] {
	return func(ctx context.Context, task DueRemindersTask) error {
		if sender == nil {
			return fmt.Errorf("reminder sender not configured")
		}

		daysAhead := task.DaysAhead
		if daysAhead < 0 {
			daysAhead = 0
		}

		sent, err := sender.SendDueReminders(ctx, daysAhead)
		if err != nil {
			return fmt.Errorf("send due reminders: %w", err)
		}

		log.Printf("[TASK] Sent %d due-date reminders (%d days ahead)", sent, daysAhead)
		return nil
	}
}

// NewDueRemindersQueue creates a backlite queue for reminder tasks.
func NewDueRemindersQueue(sender DueReminderSender) backlite.Queue {
	return backlite.NewQueue(DueRemindersProcessor(sender))
}
