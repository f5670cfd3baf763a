package tasks

import (
	"context"
	"fmt"

	"github.com/mikestefanello/backlite"
)

// Task type names, also used as backlite queue names.
const (
	TypeDueReminders      = "due_reminders"
	TypeCleanupSystemLogs = "cleanup_system_logs"
)

const (
	DefaultReminderDaysAhead = 2
	DefaultLogRetentionDays  = 90
)

// TypeInfo describes a task type that can be triggered manually.
type TypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// Types lists the task types available for manual runs.
func Types() []TypeInfo {
	return []TypeInfo{
		{
			Type:        TypeDueReminders,
			Description: "Notify borrowers about books due soon or overdue",
			Queue:       TypeDueReminders,
		},
		{
			Type:        TypeCleanupSystemLogs,
			Description: "Delete system log entries older than the retention period",
			Queue:       TypeCleanupSystemLogs,
		},
	}
}

// Params are the optional knobs of a manual run. Zero values fall back to
// the configured defaults.
type Params struct {
	DaysAhead     int `json:"days_ahead,omitempty" form:"days_ahead"`
	RetentionDays int `json:"retention_days,omitempty" form:"retention_days"`
}

// Defaults fill in Params left at zero.
type Defaults struct {
	ReminderDaysAhead int
	LogRetentionDays  int
}

// Build creates the task for a type name.
func Build(taskType string, p Params, d Defaults) (backlite.Task, error) {
	switch taskType {
	case TypeDueReminders:
		days := p.DaysAhead
		if days <= 0 {
			days = d.ReminderDaysAhead
		}
		if days <= 0 {
			days = DefaultReminderDaysAhead
		}
		return DueRemindersTask{DaysAhead: days}, nil
	case TypeCleanupSystemLogs:
		days := p.RetentionDays
		if days <= 0 {
			days = d.LogRetentionDays
		}
		if days <= 0 {
			days = DefaultLogRetentionDays
		}
		return CleanupSystemLogsTask{RetentionDays: days}, nil
	default:
		return nil, fmt.Errorf("unknown task type: %s", taskType)
	}
}

// StatusString renders a backlite status for API responses.
func StatusString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// RunInline executes a built task on the calling goroutine, bypassing the
// queue. Used by the run-task command.
func RunInline(ctx context.Context, task backlite.Task, sender DueReminderSender, cleaner SystemLogCleaner) error {
	switch t := task.(type) {
	case DueRemindersTask:
		return DueRemindersProcessor(sender)(ctx, t)
	case CleanupSystemLogsTask:
		return CleanupSystemLogsProcessor(cleaner)(ctx, t)
	default:
		return fmt.Errorf("unsupported task %T", task)
	}
}
