// Package cli defines the qiyas command tree: serving the API and
// managing database migrations.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qiyas/continuity/internal/config"
	"github.com/qiyas/continuity/internal/infrastructure/monitoring/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root cobra command with global flags and
// subcommands attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "qiyas",
		Short:   "qiyas continuity engine — cross-year assessment continuity matching",
		Long:    "qiyas serves the assessment continuity API: previous-year context\nresolution for requirements, section mapping management, and bulk\nrecommendation uploads.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),

		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./qiyas.yaml, then environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
	)

	return cmd
}

// loadConfig resolves configuration with priority: --config flag, then
// ./qiyas.yaml, then environment variables only.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	if _, err := os.Stat("qiyas.yaml"); err == nil {
		return config.Load("qiyas.yaml")
	}
	return config.LoadFromEnv()
}

// buildLogger constructs the process logger from config, honoring the
// --log-level override.
func buildLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	return logging.NewLogger(logging.LogConfig{
		Level:  level,
		Format: cfg.Log.Format,
	})
}

// Execute runs the root command, printing failures to stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return err
	}
	return nil
}
