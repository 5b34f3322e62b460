package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/mjdav02/shiftwatch/internal/model"
	"github.com/mjdav02/shiftwatch/internal/poller"
)

// Scheduler owns the main loop: poll, sleep a randomized interval, repeat
// until the context is cancelled. An iteration that fails is logged,
// optionally reported to the operator, and followed by a short fixed delay;
// the loop itself never terminates on an iteration's failure.
type Scheduler struct {
	poller       *poller.Poller
	store        model.SeenStore
	notifier     model.Notifier
	minInterval  time.Duration
	maxInterval  time.Duration
	errorDelay   time.Duration
	retention    time.Duration
	alertOnError bool
	logger       *slog.Logger

	// Injection points for deterministic tests.
	sleep    func(ctx context.Context, d time.Duration) error
	interval func() time.Duration
}

// Options tunes the loop cadence and error reporting.
type Options struct {
	MinInterval  time.Duration
	MaxInterval  time.Duration
	ErrorDelay   time.Duration
	Retention    time.Duration // seen-store sweep window, zero disables
	AlertOnError bool
}

// New creates a scheduler around one poller. notifier is used only for
// operator error alerts and may be the same instance the poller notifies
// through.
func New(p *poller.Poller, store model.SeenStore, notifier model.Notifier, opts Options, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		poller:       p,
		store:        store,
		notifier:     notifier,
		minInterval:  opts.MinInterval,
		maxInterval:  opts.MaxInterval,
		errorDelay:   opts.ErrorDelay,
		retention:    opts.Retention,
		alertOnError: opts.AlertOnError,
		logger:       logger,
		sleep:        ctxSleep,
	}
	s.interval = s.randomInterval
	return s
}

// Run starts the loop with an immediate first poll. It returns nil when ctx
// is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"min_interval", s.minInterval.String(),
		"max_interval", s.maxInterval.String(),
	)

	for {
		delay := s.iterate(ctx)

		if ctx.Err() != nil {
			s.logger.Info("shutting down scheduler")
			return nil
		}
		if err := s.sleep(ctx, delay); err != nil {
			s.logger.Info("shutting down scheduler")
			return nil
		}
	}
}

// iterate runs one poll and returns how long to sleep before the next one.
func (s *Scheduler) iterate(ctx context.Context) time.Duration {
	if err := s.poller.Poll(ctx); err != nil {
		if ctx.Err() != nil {
			return 0
		}
		s.logger.Error("poll iteration failed", "error", err)
		if s.alertOnError && s.notifier != nil {
			if alertErr := s.notifier.Alert("shiftwatch: poll iteration failed", err.Error()); alertErr != nil {
				s.logger.Error("error alert failed", "error", alertErr)
			}
		}
		return s.errorDelay
	}

	if s.retention > 0 {
		if err := s.store.Cleanup(s.retention); err != nil {
			s.logger.Warn("seen-store sweep failed", "error", err)
		}
	}

	return s.interval()
}

// randomInterval draws uniformly from [minInterval, maxInterval].
func (s *Scheduler) randomInterval() time.Duration {
	if s.maxInterval <= s.minInterval {
		return s.minInterval
	}
	spread := s.maxInterval - s.minInterval
	return s.minInterval + rand.N(spread)
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
