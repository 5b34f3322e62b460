package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/mjdav02/shiftwatch/internal/ratelimit"
	"github.com/mjdav02/shiftwatch/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the polling daemon",
	Long:  "Start the poll loop; blocks until SIGINT/SIGTERM. Refuses to run if another instance holds the lock.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"keyword", cfg.Search.Keyword,
		"cities", cfg.Search.Cities,
		"source", cfg.Search.Source,
		"auto_apply", cfg.AutoApply,
		"interval_min", cfg.Poll.MinInterval.String(),
		"interval_max", cfg.Poll.MaxInterval.String(),
	)

	// A second daemon against the same registry would double-apply; the
	// lock file next to the database keeps deployments honest.
	if cfg.Store.Path != ":memory:" {
		lock := flock.New(cfg.Store.Path + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			logger.Error("failed to acquire instance lock", "error", err)
			os.Exit(1)
		}
		if !locked {
			logger.Error("another shiftwatch instance is already running", "lock", cfg.Store.Path+".lock")
			os.Exit(1)
		}
		defer lock.Unlock()
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

	sched := scheduler.New(p, seen, n, scheduler.Options{
		MinInterval:  cfg.Poll.MinInterval,
		MaxInterval:  cfg.Poll.MaxInterval,
		ErrorDelay:   cfg.Poll.ErrorDelay,
		Retention:    cfg.Store.Retention,
		AlertOnError: cfg.Notification.AlertOnError,
	}, logger)

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
