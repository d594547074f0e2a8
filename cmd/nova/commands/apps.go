package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAppsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Inspect running applications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List running user applications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Fprintln(cmd.OutOrStdout(), rt.processes.ListUserApplications(cmd.Context()).String())
			return nil
		},
	})
	return cmd
}
