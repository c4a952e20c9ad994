package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/microearn/backend/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "microearn",
	Short: "Micro-task marketplace API",
	Long: `microearn runs the marketplace API: buyers fund tasks with coins,
workers submit proof and earn coins, and admins settle withdrawals.
Running without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MICROEARN_CONFIG"), "path to a TOML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads and validates config, then installs the JSON logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
