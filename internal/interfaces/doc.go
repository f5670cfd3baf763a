// Package interfaces documents the seams between the layers of the
// application and holds their compile-time checks.
//
// # Layers
//
//   - internal/database/*: one repository per table. Repositories take a
//     context, bind it with db.WithContext and return gorm.ErrRecordNotFound
//     untouched. WithTx rebinds a repository to a transaction.
//   - internal/services: the business rules. Services check roles with
//     auth.Can, map repository errors to apperrors sentinels and write the
//     system log through audit.Service.
//   - internal/http: thin gin controllers. Each resource has one Handle
//     method that dispatches on method plus the action and id query
//     parameters, and writes the {success, message, ...} envelope.
//
// # Background Work Interfaces
//
//   - DueReminderSender: produces due-date notifications (internal/tasks/due_reminders.go)
//   - SystemLogCleaner: prunes old system log rows (internal/tasks/cleanup_logs.go)
//   - Enqueuer: adds tasks to the queue (internal/scheduler/maintenance.go)
//
// # Adding a New Maintenance Task
//
//  1. Define the task and its processor in internal/tasks/:
//
//     type ExpireReservationsTask struct{}
//
//     func (t ExpireReservationsTask) Config() backlite.QueueConfig
//     func ExpireReservationsProcessor(dep Expirer) backlite.QueueProcessor[ExpireReservationsTask]
//     func NewExpireReservationsQueue(dep Expirer) backlite.Queue
//
//  2. Add the type to Types() and Build() in internal/tasks/catalog.go so the
//     task API and the run-task command can trigger it.
//
//  3. Register the queue in entrypoint.Run and, if it should run on a
//     schedule, add a job in internal/scheduler.
//
//  4. Add a compile-time check:
//
//     var _ tasks.Expirer = (*services.CirculationService)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the current list.
package interfaces
