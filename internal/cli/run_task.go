package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrlokans/booktrack/internal/entrypoint"
	"github.com/mrlokans/booktrack/internal/tasks"
)

func newRunTaskCommand(load ConfigLoader) *cobra.Command {
	var params tasks.Params

	names := make([]string, 0, len(tasks.Types()))
	for _, t := range tasks.Types() {
		names = append(names, t.Type)
	}

	cmd := &cobra.Command{
		Use:       "run-task <type>",
		Short:     "Run a maintenance task once, without the queue",
		Long:      "Run a maintenance task in the foreground. Task types: " + strings.Join(names, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()

			task, err := tasks.Build(args[0], params, tasks.Defaults{
				ReminderDaysAhead: cfg.Maintenance.RemindersDaysAhead,
				LogRetentionDays:  cfg.Maintenance.LogRetentionDays,
			})
			if err != nil {
				return err
			}

			app, err := entrypoint.NewApplication(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := tasks.RunInline(cmd.Context(), task, app.Reminders, app.Audit); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s completed\n", args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&params.DaysAhead, "days-ahead", 0, "Reminder horizon in days (due_reminders)")
	cmd.Flags().IntVar(&params.RetentionDays, "retention-days", 0, "Keep logs newer than this many days (cleanup_system_logs)")

	return cmd
}
