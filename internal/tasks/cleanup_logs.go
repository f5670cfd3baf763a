package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// SystemLogCleaner deletes system log entries older than a retention period.
type SystemLogCleaner interface {
	DeleteOlderThan(ctx context.Context, retention time.Duration, now time.Time) (int64, error)
}

// CleanupSystemLogsTask removes system log entries past the retention period.
type CleanupSystemLogsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for log cleanup tasks.
func (t CleanupSystemLogsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        TypeCleanupSystemLogs,
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupSystemLogsProcessor creates a processor function for CleanupSystemLogsTask.
func CleanupSystemLogsProcessor(cleaner SystemLogCleaner) backlite.QueueProcessor[CleanupSystemLogsTask] {
	return func(ctx context.Context, task CleanupSystemLogsTask) error {
		if cleaner == nil {
			return fmt.Errorf("system log cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = DefaultLogRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOlderThan(ctx, retention, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("cleanup system logs: %w", err)
		}

		log.Printf("[TASK] Cleaned up %d system log entries older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupSystemLogsQueue creates a backlite queue for log cleanup tasks.
func NewCleanupSystemLogsQueue(cleaner SystemLogCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupSystemLogsProcessor(cleaner))
}
