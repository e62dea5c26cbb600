package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/stats"
)

// Store is the part of the persistence surface a poller touches.
type Store interface {
	model.PostingStore
	model.StatsStore
	model.LogStore
}

// Kind classifies how a sync resolved.
type Kind int

const (
	CacheHit Kind = iota
	Fetched
	FetchFailed
)

func (k Kind) String() string {
	switch k {
	case CacheHit:
		return "cache_hit"
	case Fetched:
		return "fetched"
	case FetchFailed:
		return "fetch_failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome describes one category sync. Stats is nil when the fetch failed;
// Err is set only then.
type Outcome struct {
	Category string
	Tracker  string
	Date     string
	Kind     Kind
	Stats    *model.CategoryStats
	Err      error
}

// Options carries the query settings shared by every category.
type Options struct {
	Location string
	Recency  model.Recency
}

// CategoryPoller owns the cache-or-fetch pipeline for a single category:
// lookup → fetch on miss → store postings → aggregate → store stats.
type CategoryPoller struct {
	Category string
	Tracker  string
	source   model.JobSource
	store    Store
	opts     Options
	logger   *slog.Logger
}

// NewCategoryPoller creates a poller wired with all its dependencies.
func NewCategoryPoller(
	category, tracker string,
	source model.JobSource,
	store Store,
	opts Options,
	logger *slog.Logger,
) *CategoryPoller {
	return &CategoryPoller{
		Category: category,
		Tracker:  tracker,
		source:   source,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Sync makes sure stats exist for (category, today). Cached postings are
// never refetched; a failed or empty fetch writes nothing so the next pass
// retries. Source failures land in the Outcome. A returned error means the
// store could not be read or written.
func (p *CategoryPoller) Sync(ctx context.Context, today string) (Outcome, error) {
	out := Outcome{Category: p.Category, Tracker: p.Tracker, Date: today}

	postings, ok, err := p.store.GetPostings(ctx, p.Category, today)
	if err != nil {
		return out, fmt.Errorf("syncing %s: %w", p.Category, err)
	}

	if ok {
		out.Kind = CacheHit
	} else {
		fetched, err := p.source.Fetch(ctx, model.Query{
			Text:     p.Category,
			Location: p.opts.Location,
			Recency:  p.opts.Recency,
		})
		if err == nil && len(fetched) == 0 {
			err = model.ErrNoPostings
		}
		if err != nil {
			out.Kind = FetchFailed
			out.Err = err
			p.logger.Warn("fetch failed",
				"category", p.Category,
				"date", today,
				"source", p.source.Name(),
				"error", err,
			)
			p.appendLog(ctx, model.LogTypeError, fmt.Sprintf("fetch for %s on %s failed: %v", p.Category, today, err))
			return out, nil
		}

		if err := p.store.PutPostings(ctx, p.Category, today, fetched); err != nil {
			return out, fmt.Errorf("syncing %s: %w", p.Category, err)
		}
		out.Kind = Fetched
		postings = fetched
	}

	st := stats.Aggregate(postings)
	st.Category = p.Category
	st.Date = today
	if err := p.store.PutStats(ctx, st); err != nil {
		return out, fmt.Errorf("syncing %s: %w", p.Category, err)
	}
	out.Stats = &st

	p.logger.Info("synced category",
		"category", p.Category,
		"date", today,
		"outcome", out.Kind.String(),
		"postings", st.TotalJobs,
		"avg_salary", st.AvgSalary,
	)
	if out.Kind == Fetched {
		p.appendLog(ctx, model.LogTypeFetch, fmt.Sprintf("fetched %d postings for %s on %s", len(postings), p.Category, today))
	}

	return out, nil
}

// appendLog records activity for the tracker. A failed write is logged and
// otherwise ignored; the cache and stats are already consistent.
func (p *CategoryPoller) appendLog(ctx context.Context, logType, message string) {
	err := p.store.AppendLog(ctx, model.LogEntry{
		TrackerName: p.Tracker,
		LogType:     logType,
		Message:     message,
	})
	if err != nil {
		p.logger.Warn("appending activity log",
			"tracker", p.Tracker,
			"error", err,
		)
	}
}
