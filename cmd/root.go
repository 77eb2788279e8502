package cmd

import (
	"fmt"
	"os"

	"tajeats-api/config"
	"tajeats-api/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tajeats",
	Short: "Food delivery order and catalog API",
	Long: `tajeats serves the restaurant catalog, anonymous carts, orders with their
status lifecycle, reviews and staff accounts over a JSON HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.toml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

// Execute runs the command line
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	var log *zap.Logger
	if cfg.Log.Format == "" {
		log, err = logger.NewForEnvironment(cfg.App.Env, cfg.Log.Level)
	} else {
		log, err = logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log.With(zap.String("service", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
}
