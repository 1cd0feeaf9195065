package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"builderbridge/internal/api"
	"builderbridge/internal/cliconfig"
	"builderbridge/internal/identity"
	"builderbridge/internal/logging"
	"builderbridge/internal/settings"
	"builderbridge/internal/telemetry"
)

// version is stamped by the release build.
var version = "dev"

// Color helpers for terminal output. fatih/color disables itself when
// stdout is not a terminal.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY reports whether both stdin and stdout are interactive terminals.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CLI carries flag state and the wired component graph for one invocation.
type CLI struct {
	verbose bool
	apiURL  string

	logger   logging.Logger
	env      map[string]string
	home     string
	ids      *identity.Manager
	recorder *telemetry.Recorder
	client   *api.Client
	resolver *api.ModelResolver
}

// NewRootCommand builds the bridgectl command tree.
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "bridgectl",
		Short: "Inspect and exercise the Builder IDE-to-CLI integration layer",
		Long: fmt.Sprintf(`%s drives the glue between the Builder IDE extension, the Builder
CLI, and the Builder cloud backend: environment override mapping, config
resolution, default-model and balance lookups, organization mode refreshes,
and the persistent installation identity.

%s
  bridgectl env                  # overrides the IDE would hand the CLI
  bridgectl config resolve       # apply current env to the CLI config
  bridgectl default-model        # resolve the account's default model
  bridgectl modes refresh        # sync organization modes
  bridgectl whoami               # identity report`,
			bold("bridgectl"), bold("EXAMPLES:")),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cli.apiURL, "api-url", "", "Builder API base URL (default: bridge config, then "+api.DefaultBaseURL+")")
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		cli.shutdown()
	}

	rootCmd.AddCommand(
		newEnvCommand(cli),
		newConfigCommand(cli),
		newDefaultModelCommand(cli),
		newBalanceCommand(cli),
		newModesCommand(cli),
		newWhoamiCommand(cli),
		newResetIdentityCommand(cli),
		newVersionCommand(),
	)

	viper.SetConfigName("bridge")
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME/.builder")
	viper.SetEnvPrefix("BUILDER")
	viper.AutomaticEnv()
	viper.SetDefault("telemetry", true)

	return rootCmd
}

// componentLogger derives a per-component file logger. With --verbose the
// same lines are mirrored to stderr so the run can be followed live.
func (cli *CLI) componentLogger(name string) logging.Logger {
	logger := logging.Logger(logging.NewComponentLogger(name))
	if cli.verbose {
		logger = logging.Multi(logger, logging.NewWriterLogger(os.Stderr, logging.LevelDebug))
	}
	return logger
}

// initialize wires the component graph: identity first, telemetry over it,
// the API client over both, then the late identity-to-client hookups.
func (cli *CLI) initialize() error {
	if cli.verbose {
		logging.DefaultFileLogger().SetLevel(logging.LevelDebug)
	}
	cli.logger = cli.componentLogger("bridgectl")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cli.logger.Warn("bridge config unreadable: %v", err)
		}
	}

	cli.env = cliconfig.SnapshotProcessEnv()
	cli.home = cliconfig.HomeFromEnv(cli.env)

	apiURL := cli.apiURL
	if apiURL == "" {
		apiURL = viper.GetString("api_url")
	}

	telemetryClient := telemetry.NewNoopClient()
	if viper.GetBool("telemetry") {
		if key := viper.GetString("posthog_api_key"); key != "" {
			client, err := telemetry.NewPostHogClient(key, viper.GetString("posthog_host"))
			if err != nil {
				cli.logger.Warn("telemetry client unavailable, continuing without: %v", err)
			} else {
				telemetryClient = client
			}
		}
	}

	home := cli.home
	cli.ids = identity.NewManager(
		identity.WithHomeDir(func() (string, error) {
			if home == "" {
				return "", errors.New("no home directory in environment")
			}
			return home, nil
		}),
		identity.WithLogger(cli.componentLogger("identity")),
	)
	cli.recorder = telemetry.NewRecorder(telemetryClient, cli.ids, cli.componentLogger("telemetry"))
	cli.ids.AttachReporter(cli.recorder)
	cli.ids.Initialize()

	cli.client = api.NewClient(
		api.WithBaseURL(apiURL),
		api.WithLogger(cli.componentLogger("api")),
		api.WithReporter(cli.recorder),
	)
	cli.ids.AttachProfileFetcher(cli.client)
	cli.resolver = api.NewModelResolver(cli.client)

	return nil
}

// shutdown flushes telemetry.
func (cli *CLI) shutdown() {
	if cli.recorder != nil {
		cli.recorder.Close()
	}
}

// loadConfig reads the CLI config document, defaulting to the standard
// location under the user's home.
func (cli *CLI) loadConfig(path string) (cliconfig.Config, error) {
	if path == "" {
		if cli.home == "" {
			return cliconfig.Config{}, errors.New("no home directory in environment; pass --file")
		}
		path = cliconfig.DefaultPath(cli.home)
	}
	return cliconfig.Load(path)
}

// resolvedSettings derives provider settings from the CLI config after
// applying the process-environment overrides.
func (cli *CLI) resolvedSettings() (settings.ProviderSettings, error) {
	cfg, err := cli.loadConfig("")
	if err != nil {
		return settings.ProviderSettings{}, err
	}
	resolved := cliconfig.ApplyOverrides(cfg, cli.env)
	entry, ok := resolved.ActiveProvider()
	if !ok {
		return settings.ProviderSettings{}, errors.New("CLI config names no active provider")
	}
	return entry.Settings(), nil
}

// settingsOrEmpty is resolvedSettings for commands that must keep working
// without a usable config; the caller sees empty credentials instead of an
// error.
func (cli *CLI) settingsOrEmpty(cmd *cobra.Command) settings.ProviderSettings {
	providerSettings, err := cli.resolvedSettings()
	if err != nil {
		cli.logger.Debug("continuing without credentials: %v", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s no usable CLI config (%v)\n", yellow("!"), err)
		return settings.ProviderSettings{}
	}
	return providerSettings
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bridgectl %s\n", version)
		},
	}
}
