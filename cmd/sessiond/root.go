package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronmore/sessionauth/env"
	"github.com/cameronmore/sessionauth/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sessiond",
	Short: "sessiond serves session based authentication",
	Long: `sessiond runs the session authentication API and the helper commands
used to manage its users. Configuration comes from the environment and an
optional .env file.`,
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
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before reading the environment (default .env)")
}

// loadConfig reads --env-file and the environment and builds the service logger.
func loadConfig(cmd *cobra.Command) (env.Config, *slog.Logger, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	cfg, err := env.Load(files...)
	if err != nil {
		return env.Config{}, nil, err
	}
	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithAttr(slog.String("service", "sessiond")),
	)
	slog.SetDefault(log)
	return cfg, log, nil
}
