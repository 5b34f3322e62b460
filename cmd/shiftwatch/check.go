package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mjdav02/shiftwatch/internal/ratelimit"
	"github.com/mjdav02/shiftwatch/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Poll once, print matches, exit",
	Long:  "One-shot poll: fetches every configured city, reports matches through the notifier, exits. Does not mark listings as seen and never applies.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: nothing is persisted and no applications are submitted")

	n := setupNotifier(cfg, logger)
	nopStore := store.NewNopStore()
	limiter := ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// No applicator and no application log in check mode.
	p, err := buildPoller(cfg, nopStore, nil, n, nil, limiter, logger)
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

	logger.Info("check complete")
	return nil
}
