package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor runs hierarchical state machines on actors",
	Long: `Arbor is a hierarchical state machine runtime with a lightweight actor system.
The command line runs the reference stopwatch machines, serves their introspection API
and renders their definition.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("stopwatches", 0, "Number of stopwatch machines")
	rootCmd.PersistentFlags().Duration("tick", 0, "Tick period of the stopwatches")
}

// loadConfig reads the configuration file and applies the flags explicitly set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("stopwatches") {
		cfg.Stopwatches, _ = flags.GetInt("stopwatches")
	}
	if flags.Changed("tick") {
		cfg.Tick, _ = flags.GetDuration("tick")
	}
	if flags.Lookup("duration") != nil && flags.Changed("duration") {
		cfg.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		cfg.HTTP.Addr, _ = flags.GetString("addr")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.NewFor(os.Stderr, logging.ParseLevel(cfg.LogLevel))
}
