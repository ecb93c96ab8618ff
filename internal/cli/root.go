// Package cli provides the motorgen command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/motorgen/internal/config"
	"github.com/okian/motorgen/pkg/logger"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "motorgen",
		Short: "Motor identity and section feature pipeline",
		Long: `motorgen reads archived motor ranking documents, infers physical motor
identities per venue slot, joins them to race rows and derives per-section
features computed only from earlier sections.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load(ctx, config.WithFile(cfgFile), config.WithFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			if err := logger.Init(
				logger.WithWriter(cmd.ErrOrStderr()),
				logger.WithFormat(cfg.LogFormat),
				logger.WithLevel(cfg.LogLevel),
			); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := config.New()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "YAML config file (default: $MOTORGEN_CONFIG)")
	pf.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	pf.String("log-format", defaults.LogFormat, "Log format (text|json)")
	pf.Int("workers", defaults.WorkerCount, "Goroutines used for per-group fan-out")
	pf.String("out-dir", defaults.OutDir, "Directory receiving every output table")
	pf.String("state", defaults.StatePath, "SQLite run-history database (empty disables it)")
	pf.String("metrics-file", defaults.MetricsFile, "Prometheus textfile written after batch runs")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newExtractCmd(),
		newResolveCmd(),
		newJoinCmd(),
		newSectionsCmd(),
		newFeaturesCmd(),
		newRunCmd(),
		newServeCmd(),
		newFixturesCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ConfigFrom returns the config loaded for the running command, or the
// defaults when none was loaded.
func ConfigFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.New()
}
