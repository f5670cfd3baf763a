package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/booktrack/internal/entrypoint"
)

func newServeCommand(version string, load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(load(), version)
			return nil
		},
	}
}
