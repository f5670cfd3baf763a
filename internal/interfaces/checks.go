package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/booktrack/internal/audit"
	"github.com/mrlokans/booktrack/internal/scheduler"
	"github.com/mrlokans/booktrack/internal/services"
	"github.com/mrlokans/booktrack/internal/tasks"
)

// =============================================================================
// Maintenance Tasks
// =============================================================================

// DueReminderSender implementations
var _ tasks.DueReminderSender = (*services.ReminderService)(nil)

// SystemLogCleaner implementations
var _ tasks.SystemLogCleaner = (*audit.Service)(nil)

// =============================================================================
// Scheduling
// =============================================================================

// Enqueuer implementations
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
