package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "do <domain> <action> [target] [argument]",
		Short: "Run one action directly, without the oracle",
		Long: `Dispatches a single action and prints its outcome.

Domains and actions:
  file     create|read|update|list|mkdir|run <path> [content]
  vcs      status|add|commit|push|pull|log [files|message]
  process  open|close|list [app]
  web      website <url> | search <platform> <query>
  system   lock|sleep|shutdown|restart|volume_up|volume_down|mute

Examples:
  nova do file create notes/todo.txt "buy milk"
  nova do vcs commit "fix typo"
  nova do web search youtube "go generics"`,
		Args: cobra.RangeArgs(2, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			args = append(args, "", "")
			domain, action, target, argument := args[0], args[1], args[2], args[3]
			if domain == "vcs" && argument == "" {
				// git takes a single argument: files for add, message for commit.
				target, argument = "", target
			}
			out := rt.router.HandleText(cmd.Context(), domain, action, target, argument)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
