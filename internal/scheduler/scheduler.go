package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/poller"
)

// Result is one category's share of a pass. Err is set when the sync
// could not complete (store failure or panic); source failures are
// reported through Outcome instead.
type Result struct {
	Outcome poller.Outcome
	Err     error
}

// Scheduler owns the main loop: every pass syncs all categories
// concurrently, then sleeps until the schedule's next activation.
type Scheduler struct {
	pollers  []*poller.CategoryPoller
	schedule cron.Schedule
	logs     model.LogStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler for the given pollers. logs receives a
// best-effort "error" entry when a category task fails outright.
func NewScheduler(pollers []*poller.CategoryPoller, schedule cron.Schedule, logs model.LogStore, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers:  pollers,
		schedule: schedule,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
}

// ParseSchedule returns the cron schedule for expr, or a fixed interval
// when expr is empty.
func ParseSchedule(expr string, interval time.Duration) (cron.Schedule, error) {
	if expr == "" {
		if interval <= 0 {
			return nil, fmt.Errorf("interval must be positive, got %v: %w", interval, model.ErrInvalidConfiguration)
		}
		return cron.Every(interval), nil
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w: %w", expr, model.ErrInvalidConfiguration, err)
	}
	return sched, nil
}

// Run starts the polling loop. It runs one immediate pass, then waits for
// the next activation after each pass has fully finished, so passes never
// overlap. It returns nil when ctx is cancelled (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"categories", len(s.pollers),
	)

	for {
		if ctx.Err() != nil {
			s.logger.Info("shutting down scheduler")
			return nil
		}
		s.RunPass(ctx)

		next := s.schedule.Next(s.now())
		s.logger.Info("pass complete, sleeping", "next", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("shutting down scheduler")
			return nil
		case <-timer.C:
		}
	}
}

// RunPass syncs every category concurrently against a single date and
// returns once all of them have finished. A failing or panicking category
// never affects its siblings.
func (s *Scheduler) RunPass(ctx context.Context) []Result {
	today := model.DateKey(s.now())
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "date", today)
	logger.Info("starting pass", "categories", len(s.pollers))

	results := make([]Result, len(s.pollers))
	var wg sync.WaitGroup
	for i, p := range s.pollers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.syncOne(ctx, logger, p, today)
		}()
	}
	wg.Wait()

	var hits, fetched, failed, errored int
	for _, r := range results {
		switch {
		case r.Err != nil:
			errored++
		case r.Outcome.Kind == poller.CacheHit:
			hits++
		case r.Outcome.Kind == poller.Fetched:
			fetched++
		default:
			failed++
		}
	}
	logger.Info("pass finished",
		"cache_hits", hits,
		"fetched", fetched,
		"fetch_failed", failed,
		"errors", errored,
	)
	return results
}

func (s *Scheduler) syncOne(ctx context.Context, logger *slog.Logger, p *poller.CategoryPoller, today string) (res Result) {
	res.Outcome = poller.Outcome{Category: p.Category, Tracker: p.Tracker, Date: today, Kind: poller.FetchFailed}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("sync %s panicked: %v", p.Category, r)
			s.reportFailure(ctx, logger, p, res.Err)
		}
	}()

	out, err := p.Sync(ctx, today)
	if err != nil {
		res.Err = err
		s.reportFailure(ctx, logger, p, err)
		return res
	}
	res.Outcome = out
	return res
}

func (s *Scheduler) reportFailure(ctx context.Context, logger *slog.Logger, p *poller.CategoryPoller, err error) {
	logger.Error("category sync failed",
		"category", p.Category,
		"tracker", p.Tracker,
		"error", err,
	)
	if s.logs == nil {
		return
	}
	// The store may be the thing that failed; this write is best-effort.
	if lerr := s.logs.AppendLog(ctx, model.LogEntry{
		TrackerName: p.Tracker,
		LogType:     model.LogTypeError,
		Message:     fmt.Sprintf("sync for %s failed: %v", p.Category, err),
	}); lerr != nil {
		logger.Warn("appending failure log", "tracker", p.Tracker, "error", lerr)
	}
}
