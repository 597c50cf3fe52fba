package cmd

import (
	"fmt"
	"os"

	"github.com/corey/storyboard/internal/app"
	"github.com/corey/storyboard/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	noGuard bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "storyboard",
	Short:         "storyboard: local storage tooling",
	Long:          "Inspect, clear and invalidate the storyboard app's versioned key-value storage.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		zcfg := zap.NewProductionConfig()
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&noGuard, "no-guard", false, "Do not run the version guard on open")

	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(kvCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// openApp opens the configured store. Unless --no-guard is set, the version
// guard runs first, exactly as a page load would; a wipe is reported on stderr.
func openApp() (*app.App, error) {
	return openAppWith(appOptions(false))
}

func appOptions(skipGuard bool) app.Options {
	return app.Options{SkipGuard: skipGuard || noGuard, Logger: logger}
}

func openAppWith(opts app.Options) (*app.App, error) {
	a, err := app.Open(cfg, opts)
	if err != nil {
		if isDBLockError(err) {
			return nil, fmt.Errorf("cannot open storage: %s", diagnoseDBLock(cfg.Dir))
		}
		return nil, err
	}
	if a.Guard != nil && (a.Guard.Wiped || a.Guard.Aborted) {
		fmt.Fprintln(os.Stderr, formatGuard(a.Guard, a.Storage.Version()))
	}
	return a, nil
}
