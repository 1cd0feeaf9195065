package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"builderbridge/internal/clienv"
	"builderbridge/internal/cliconfig"
	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/modes"
	"builderbridge/internal/settings"
)

// newEnvCommand prints the override map the IDE extension would hand the
// Builder CLI for the current provider settings.
func newEnvCommand(cli *CLI) *cobra.Command {
	var settingsPath string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the environment overrides the IDE would hand the Builder CLI",
		Long: `Runs the provider-settings to environment mapping and prints the result
as KEY=value lines, one per override. With --settings the input comes from a
provider-settings JSON file; otherwise the active CLI config entry is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			providerSettings, err := cli.envInputSettings(cmd, settingsPath)
			if err != nil {
				return err
			}

			mapper := clienv.NewMapper(
				clienv.WithLogger(cli.logger),
				clienv.WithDebugLogger(cli.componentLogger("clienv")),
			)
			overrides := mapper.BuildOverrides(&providerSettings, cli.env)
			if len(overrides) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray("no overrides: the CLI keeps its own configuration"))
				return nil
			}

			keys := make([]string, 0, len(overrides))
			for key := range overrides {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, overrides[key])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Provider-settings JSON file (default: the active CLI config entry)")
	return cmd
}

// envInputSettings loads the mapper input, either from an explicit settings
// file or from the CLI config's active entry.
func (cli *CLI) envInputSettings(cmd *cobra.Command, settingsPath string) (settings.ProviderSettings, error) {
	if settingsPath == "" {
		return cli.settingsOrEmpty(cmd), nil
	}
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return settings.ProviderSettings{}, bridgeerrors.NewFilesystem(settingsPath, err)
	}
	var providerSettings settings.ProviderSettings
	if err := json.Unmarshal(data, &providerSettings); err != nil {
		return settings.ProviderSettings{}, bridgeerrors.NewSchema(settingsPath, err)
	}
	return providerSettings, nil
}

// newConfigCommand groups config inspection subcommands.
func newConfigCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the Builder CLI configuration",
	}

	var filePath string
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Apply the current process environment to the CLI config and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			cfg, err := cli.loadConfig(filePath)
			if err != nil {
				return err
			}

			resolved := cliconfig.ApplyOverrides(cfg, cli.env)
			encoded, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", encoded)
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&filePath, "file", "", "Config document to resolve (default: "+cliconfig.DefaultPath("~")+")")
	cmd.AddCommand(resolveCmd)

	return cmd
}

// newDefaultModelCommand resolves the account's default model id.
func newDefaultModelCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "default-model",
		Short: "Resolve the default model for the configured account",
		Long: `Asks the backend which model this account should default to. The command
never fails: without credentials, or when the backend is unreachable, it
prints the hardcoded fallback model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			providerSettings := cli.settingsOrEmpty(cmd)

			model := cli.resolver.GetDefault(cmd.Context(), providerSettings.Token(), providerSettings.OrganizationID(), &providerSettings)
			fmt.Fprintln(cmd.OutOrStdout(), model)
			return nil
		},
	}
}

// newBalanceCommand probes whether the account has credit left.
func newBalanceCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Check whether the configured account has a positive balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			providerSettings := cli.settingsOrEmpty(cmd)

			if cli.client.HasPositiveBalance(cmd.Context(), providerSettings.Token(), providerSettings.OrganizationID()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s positive\n", green("balance:"))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s not positive\n", red("balance:"))
			}
			return nil
		},
	}
}

// newModesCommand groups organization-mode subcommands.
func newModesCommand(cli *CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Manage organization-provided modes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Fetch organization modes and merge them into the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			if cli.home == "" {
				return fmt.Errorf("no home directory in environment")
			}
			providerSettings := cli.settingsOrEmpty(cmd)
			if providerSettings.Token() == "" || providerSettings.OrganizationID() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), gray("nothing to refresh: no Builder token or organization configured"))
				return nil
			}

			store := modes.NewFileStore(cli.home)
			state := modes.NewFileState(cli.home)
			refresher := modes.NewRefresher(cli.client, store, state,
				modes.WithLogger(cli.componentLogger("modes")),
				modes.WithReporter(cli.recorder),
			)
			refresher.OnStartup(cmd.Context(), &providerSettings)

			merged, err := store.List()
			if err != nil {
				return err
			}
			organization := 0
			for _, mode := range merged {
				if mode.Source != "" {
					organization++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d modes in store (%d organization-managed)\n", green("ok:"), len(merged), organization)
			return nil
		},
	})

	return cmd
}

// newWhoamiCommand prints the identity report.
func newWhoamiCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity attached to telemetry and backend calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			providerSettings := cli.settingsOrEmpty(cmd)
			cli.ids.UpdateBuilderUserID(cmd.Context(), providerSettings.Token())

			out := cmd.OutOrStdout()
			if isTTY() {
				fmt.Fprintln(out, bold("identity"))
			}
			builderUser := cli.ids.BuilderUserID()
			if builderUser == "" {
				builderUser = gray("(not signed in)")
			} else {
				builderUser = cyan(builderUser)
			}
			fmt.Fprintf(out, "  %-14s %s\n", "distinct id", cli.ids.DistinctID())
			fmt.Fprintf(out, "  %-14s %s\n", "builder user", builderUser)
			fmt.Fprintf(out, "  %-14s %s\n", "cli user id", cli.ids.CLIUserID())
			fmt.Fprintf(out, "  %-14s %s\n", "machine id", cli.ids.MachineID())
			fmt.Fprintf(out, "  %-14s %s\n", "session id", cli.ids.SessionID())
			fmt.Fprintf(out, "  %-14s %s\n", "session start", cli.ids.SessionStart().Format(time.RFC3339))
			return nil
		},
	}
}

// newResetIdentityCommand deletes the persisted identity.
func newResetIdentityCommand(cli *CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-identity",
		Short: "Delete the persisted CLI user id",
		Long: `Removes the identity file and clears in-memory identity state. The next
command mints a fresh CLI user id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.initialize(); err != nil {
				return err
			}
			if err := cli.ids.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s identity reset\n", green("ok:"))
			return nil
		},
	}
}
