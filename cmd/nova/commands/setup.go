package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jholhewres/nova/pkg/nova/agent"
	"github.com/jholhewres/nova/pkg/nova/config"
)

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Asks for the assistant name, your name, the oracle provider and the
API key, then writes nova.yaml. The key goes to the OS keyring when one
is available.`,
		RunE: runSetup,
	}
}

func runSetup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigFile
	}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if loaded, _, err := config.Load(path); err == nil {
			cfg = loaded
		}
	}

	rounds := strconv.Itoa(cfg.Oracle.MaxToolRounds)
	var apiKey string
	useKeyring := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Assistant name").
				Value(&cfg.Name),
			huh.NewInput().
				Title("Your name").
				Description("How the assistant addresses you").
				Value(&cfg.UserName),
			huh.NewInput().
				Title("Project directory").
				Description("File operations are confined to this directory").
				Value(&cfg.ProjectRoot),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Oracle provider").
				Options(
					huh.NewOption("Google Gemini", agent.ProviderGemini),
					huh.NewOption("OpenAI-compatible", agent.ProviderOpenAI),
				).
				Value(&cfg.Oracle.Provider),
			huh.NewInput().
				Title("Model").
				Value(&cfg.Oracle.Model),
			huh.NewInput().
				Title("Max tool rounds per message").
				Value(&rounds).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(s); err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API key").
				Description("Leave empty to keep the current key").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewConfirm().
				Title("Store the key in the OS keyring?").
				Value(&useKeyring),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	cfg.Oracle.MaxToolRounds, _ = strconv.Atoi(rounds)
	if cfg.Oracle.Provider == agent.ProviderOpenAI && cfg.Oracle.Model == agent.DefaultOracleConfig().Model {
		cfg.Oracle.Model = "gpt-4o-mini"
	}

	cfg.Oracle.APIKey = "${" + config.APIKeyEnv + "}"
	if apiKey != "" {
		stored := false
		if useKeyring {
			if err := config.StoreAPIKey(apiKey); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️ keyring unavailable: %v\n", err)
			} else {
				stored = true
			}
		}
		if !stored {
			fmt.Fprintf(cmd.ErrOrStderr(), "Add %s=<key> to .env to use this key.\n", config.APIKeyEnv)
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Config written to %s. Run 'nova chat' to start.\n", path)
	return nil
}
