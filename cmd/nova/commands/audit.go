package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the action audit trail",
	}
	cmd.AddCommand(newAuditRecentCmd(), newAuditPruneCmd())
	return cmd
}

func newAuditRecentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent actions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.audit == nil {
				return fmt.Errorf("audit trail is disabled (audit.enabled: false)")
			}

			n, _ := cmd.Flags().GetInt("n")
			entries, err := rt.audit.Recent(n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No actions recorded yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(out, e.String())
			}
			return nil
		},
	}
	cmd.Flags().IntP("n", "n", 20, "number of entries")
	return cmd
}

func newAuditPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete entries older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(cmd, true)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.audit == nil {
				return fmt.Errorf("audit trail is disabled (audit.enabled: false)")
			}
			removed, err := rt.audit.Prune()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %d days.\n", removed, rt.cfg.Audit.RetentionDays)
			return nil
		},
	}
}
