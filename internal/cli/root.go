// Package cli defines the booktrack command line: the HTTP server and a few
// operator commands that work directly against the configured database.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/booktrack/internal/config"
)

// ConfigLoader returns the application configuration. Tests swap it out.
type ConfigLoader func() *config.Config

// NewRootCommand builds the command tree. Running the binary without a
// subcommand starts the server.
func NewRootCommand(version string, load ConfigLoader) *cobra.Command {
	if load == nil {
		load = config.NewConfig
	}

	serve := newServeCommand(version, load)

	root := &cobra.Command{
		Use:           "booktrack",
		Short:         "BookTrack library backend",
		Long:          "BookTrack serves the library catalog, circulation and user accounts over a JSON API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(
		serve,
		newCreateUserCommand(load),
		newRunTaskCommand(load),
	)
	return root
}
