package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mjdav02/shiftwatch/internal/applicator"
	"github.com/mjdav02/shiftwatch/internal/config"
	"github.com/mjdav02/shiftwatch/internal/filter"
	"github.com/mjdav02/shiftwatch/internal/model"
	"github.com/mjdav02/shiftwatch/internal/notifier"
	"github.com/mjdav02/shiftwatch/internal/poller"
	"github.com/mjdav02/shiftwatch/internal/ratelimit"
	"github.com/mjdav02/shiftwatch/internal/retry"
	"github.com/mjdav02/shiftwatch/internal/source"
	"github.com/mjdav02/shiftwatch/internal/store"
)

// applyTimeout bounds a single application attempt end to end.
const applyTimeout = 60 * time.Second

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "shiftwatch",
	Short: "Warehouse shift radar — apply before anyone else",
	Long:  "Shiftwatch polls a warehouse job board for openings in your cities, applies for you, and emails you the details.",
	// Default to `start` so that `shiftwatch` with no args runs the daemon.
	// This keeps systemd unit files that invoke the binary directly working.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: SHIFTWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > SHIFTWATCH_CONFIG env var > "./config.yaml"
// A .env file next to the binary is loaded first so ${VAR} expansion in the
// YAML can pick up secrets without exporting them.
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()
	if path == "" {
		if env := os.Getenv("SHIFTWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "email":
		logger.Info("using email notifier",
			"smtp_host", cfg.Notification.SMTPHost,
			"recipients", len(cfg.Notification.RecipientList()),
		)
		return notifier.NewEmailNotifier(
			cfg.Notification.SMTPHost,
			cfg.Notification.SMTPPort,
			cfg.Notification.Sender,
			cfg.Notification.Password,
			cfg.Notification.RecipientList(),
			logger,
		)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// buildSource assembles the listing source pipeline: board strategy,
// then rate limiting, then retries on the outside so retried attempts
// are paced too. The limiter is the process-wide token budget shared
// with the applicator.
func buildSource(cfg *config.Config, client *http.Client, limiter *rate.Limiter, logger *slog.Logger) (model.ListingSource, error) {
	var src model.ListingSource
	switch cfg.Search.Source {
	case "api":
		src = source.NewAPISource(cfg.Search.BaseURL, cfg.Search.Keyword, cfg.Search.Locale, client)
	case "dom":
		src = source.NewDOMSource(cfg.Search.BaseURL, cfg.Search.Keyword, client)
	default:
		return nil, fmt.Errorf("unsupported search source %q", cfg.Search.Source)
	}

	src = ratelimit.NewSource(src, limiter)
	src = retry.NewSource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	return src, nil
}

// openRegistry opens the dedup registry. The special path ":memory:" selects
// the process-lifetime in-memory registry, which has no application log.
func openRegistry(cfg *config.Config, logger *slog.Logger) (model.SeenStore, model.ApplicationLog, func(), error) {
	if cfg.Store.Path == ":memory:" {
		logger.Info("using in-memory registry, nothing survives a restart")
		return store.NewMemoryStore(), nil, func() {}, nil
	}
	sqlStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	return sqlStore, sqlStore, func() { sqlStore.Close() }, nil
}

// buildApplicator returns nil when auto-apply is disabled; the poller
// treats a nil applicator as notify-only. The limiter must be the same
// instance the listing source uses, so fetches and apply-flow requests
// draw from one budget.
func buildApplicator(cfg *config.Config, limiter *rate.Limiter, logger *slog.Logger) model.Applicator {
	if !cfg.AutoApply {
		return nil
	}
	client := &http.Client{
		Timeout:   applyTimeout,
		Transport: &ratelimit.Transport{Limiter: limiter},
	}
	profile := applicator.Profile{
		Email:      cfg.Applicant.Email,
		Phone:      cfg.Applicant.Phone,
		ResumePath: cfg.Applicant.ResumePath,
	}
	return applicator.NewHTTPApplicator(client, profile, applyTimeout, logger)
}

func buildPoller(cfg *config.Config, seen model.SeenStore, appLog model.ApplicationLog, n model.Notifier, app model.Applicator, limiter *rate.Limiter, logger *slog.Logger) (*poller.Poller, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	src, err := buildSource(cfg, client, limiter, logger)
	if err != nil {
		return nil, err
	}

	cityFilter := filter.NewCityFilter(cfg.Search.Cities)

	return poller.New(
		src,
		cfg.Search.Cities,
		cityFilter,
		seen,
		n,
		app,
		appLog,
		cfg.Applicant.Email,
		logger,
	), nil
}
