// Package commands implements the nova CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with every subcommand registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nova",
		Short: "Nova - desktop assistant",
		Long: `Nova is a conversational desktop assistant. It works with files inside
a project directory, runs allowlisted shell and git commands, opens and
closes applications, and drives the browser and basic system controls.

Examples:
  nova chat
  nova chat "what changed in git since yesterday?"
  nova do file list
  nova do process open spotify
  nova audit recent -n 10`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newDoCmd(),
		newConfigCmd(),
		newSetupCmd(),
		newAuditCmd(),
		newAppsCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
