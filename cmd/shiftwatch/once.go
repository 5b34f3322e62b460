package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mjdav02/shiftwatch/internal/ratelimit"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single full poll iteration",
	Long:  "Runs one real iteration against the registry: new matches are applied to (when auto_apply is on), marked as seen, and notified. Useful from cron.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	seen, appLog, closeStore, err := openRegistry(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	n := setupNotifier(cfg, logger)
	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	app := buildApplicator(cfg, limiter, logger)

	p, err := buildPoller(cfg, seen, appLog, n, app, limiter, logger)
	if err != nil {
		logger.Error("failed to build poller", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := p.Poll(ctx); err != nil {
		logger.Error("poll failed", "error", err)
		os.Exit(1)
	}

	if cfg.Store.Retention > 0 {
		if err := seen.Cleanup(cfg.Store.Retention); err != nil {
			logger.Warn("registry cleanup failed", "error", err)
		}
	}

	logger.Info("iteration complete")
	return nil
}
