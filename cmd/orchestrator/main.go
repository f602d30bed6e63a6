// Package main is the orchestrator CLI: a thin composition root wiring
// config, storage, the provider factory, and the orchestrator facade behind
// two subcommands, run-task and ingest. Grounded on the teacher's
// cmd/nerd/main.go rootCmd + PersistentPreRunE/PersistentPostRun shape.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskforge/internal/config"
	"taskforge/internal/logging"
	"taskforge/internal/store"
)

var (
	verbose    bool
	configPath string
	dbDSN      string
	timeout    time.Duration

	cfg   *config.Config
	st    *store.LocalStore
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "taskforge orchestrator - graph-driven task enhancement and decomposition",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Initialize(verbose); err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logger = logging.Category("cli")

		var err error
		if configPath != "" {
			cfg, err = config.Load(configPath)
		} else {
			cfg = config.DefaultConfig()
			err = cfg.Validate()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if dbDSN != "" {
			cfg.DatabaseURL = dbDSN
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		st, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			_ = st.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "SQLite DSN override (default: config's database_url)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	rootCmd.AddCommand(runTaskCmd, ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
