package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/batch"
)

// Factory turns a validated config into the runner for its run mode.
type Factory func(cfg *Config) (Runner, error)

type globalFlags struct {
	configFile    string
	verbose       bool
	apiKey        string
	baseURL       string
	searchTimeout time.Duration
	detailTimeout time.Duration
	dsn           string
	completionURL string
}

// NewRootCommand builds the CLI. Settings are layered as defaults, then the
// --config YAML file, then the environment, then explicitly set flags.
func NewRootCommand(factory Factory) *cobra.Command {
	var (
		gf  globalFlags
		cfg *Config
	)

	defaults := DefaultConfig()

	root := &cobra.Command{
		Use:           "nzbn-directors",
		Short:         "Look up the active directors of New Zealand companies",
		Long:          "nzbn-directors resolves company names against the NZBN registry and lists their active directors, one at a time, from a spreadsheet, or through a small web page.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error

			cfg, err = buildConfig(cmd, &gf, os.LookupEnv)
			if err != nil {
				return err
			}

			cfg.Logger, err = NewLogger(cfg.Verbose)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}

			Banner(cfg)

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if cfg != nil && cfg.Logger != nil {
				_ = cfg.Logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.configFile, "config", "", "path to a YAML config file")
	pf.BoolVarP(&gf.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&gf.apiKey, "api-key", "", "NZBN subscription key [env: NZBN_API_KEY]")
	pf.StringVar(&gf.baseURL, "base-url", defaults.BaseURL, "NZBN API base URL [env: NZBN_BASE_URL]")
	pf.DurationVar(&gf.searchTimeout, "search-timeout", defaults.SearchTimeout, "timeout for one registry search")
	pf.DurationVar(&gf.detailTimeout, "detail-timeout", defaults.DetailTimeout, "timeout for one entity details call")
	pf.StringVar(&gf.dsn, "dsn", "", "database for batch runs, postgres:// or sqlite:// [env: DATABASE_URL]")
	pf.StringVar(&gf.completionURL, "completion-url", "", "URL notified when a stored batch run finishes")

	current := func() *Config { return cfg }

	root.AddCommand(
		newBatchCommand(current, factory),
		newServeCommand(current, factory),
		newLookupCommand(current, factory),
		newExportCommand(current, factory),
	)

	return root
}

func buildConfig(cmd *cobra.Command, gf *globalFlags, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if gf.configFile != "" {
		if err := LoadConfigFile(cfg, gf.configFile); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg, lookupEnv)

	flags := cmd.Flags()

	if flags.Changed("verbose") {
		cfg.Verbose = gf.verbose
	}

	if flags.Changed("api-key") {
		cfg.SubscriptionKey = gf.apiKey
	}

	if flags.Changed("base-url") {
		cfg.BaseURL = gf.baseURL
	}

	if flags.Changed("search-timeout") {
		cfg.SearchTimeout = gf.searchTimeout
	}

	if flags.Changed("detail-timeout") {
		cfg.DetailTimeout = gf.detailTimeout
	}

	if flags.Changed("dsn") {
		cfg.Dsn = gf.dsn
	}

	if flags.Changed("completion-url") {
		cfg.JobCompletionAPIURL = gf.completionURL
	}

	return cfg, nil
}

func newBatchCommand(current func() *Config, factory Factory) *cobra.Command {
	var profile, out string

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Resolve directors for every row of a spreadsheet (.xlsx or .csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := current()
			cfg.RunMode = RunModeBatch
			cfg.InputFile = args[0]
			cfg.OutputFile = out

			if cmd.Flags().Changed("profile") {
				cfg.Profile = profile
			}

			return execute(cmd.Context(), cfg, factory)
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "title",
		"tool profile: "+strings.Join(batch.ProfileNames(), ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV path [default: the profile's file name]")

	return cmd
}

func newServeCommand(current func() *Config, factory Factory) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web lookup page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := current()
			cfg.RunMode = RunModeWeb

			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			return execute(cmd.Context(), cfg, factory)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func newLookupCommand(current func() *Config, factory Factory) *cobra.Command {
	var input, format string

	cmd := &cobra.Command{
		Use:   "lookup [NAME...]",
		Short: "Look up one or more companies by exact name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && input == "" {
				return errors.New("give at least one company name or --input")
			}

			cfg := current()
			cfg.RunMode = RunModeLookup
			cfg.Names = args
			cfg.InputFile = input

			if cmd.Flags().Changed("format") {
				cfg.Format = format
			}

			return execute(cmd.Context(), cfg, factory)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "file with one company name per line")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format: text or json")

	return cmd
}

func newExportCommand(current func() *Config, factory Factory) *cobra.Command {
	var runID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the CSV of a stored batch run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := current()
			cfg.RunMode = RunModeExport
			cfg.RunID = runID
			cfg.OutputFile = out

			return execute(cmd.Context(), cfg, factory)
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "id of the stored batch run")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV path [default: stdout]")

	_ = cmd.MarkFlagRequired("run-id")

	return cmd
}

func execute(ctx context.Context, cfg *Config, factory Factory) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	runnerInstance, err := factory(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := runnerInstance.Close(context.WithoutCancel(ctx)); err != nil {
			cfg.Log().Warn("closing runner", zap.Error(err))
		}
	}()

	if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
