// Package commands holds the entconsole subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, built string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display entconsole version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "entconsole v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Entity query console (commit %s, built %s)\n", commit, built)
		},
	}
}
