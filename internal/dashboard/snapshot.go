package dashboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/stats"
)

const (
	recentDays   = 7
	activityRows = 15
)

// Snapshot is everything the dashboard shows for one category and date.
type Snapshot struct {
	Category config.CategoryConfig
	Date     string
	Cached   bool // false when no postings are cached for Date
	Postings []model.Posting
	Stats    *model.CategoryStats
	Salaries stats.SalaryRange
	Recent   []model.CategoryStats // newest first
	Activity []model.LogEntry      // newest first
}

// LoadSnapshot reads one category's dashboard data from the store.
func LoadSnapshot(ctx context.Context, s model.Store, c config.CategoryConfig, date string) (Snapshot, error) {
	snap := Snapshot{Category: c, Date: date}

	postings, ok, err := s.GetPostings(ctx, c.Name, date)
	if err != nil {
		return snap, fmt.Errorf("loading postings for %s: %w", c.Name, err)
	}
	snap.Cached = ok
	snap.Postings = postings
	sortPostings(snap.Postings)
	snap.Salaries = stats.Salaries(postings)

	st, ok, err := s.GetStats(ctx, c.Name, date)
	if err != nil {
		return snap, fmt.Errorf("loading stats for %s: %w", c.Name, err)
	}
	if ok {
		snap.Stats = &st
	}

	if snap.Recent, err = s.RecentStats(ctx, c.Name, recentDays); err != nil {
		return snap, fmt.Errorf("loading recent stats for %s: %w", c.Name, err)
	}
	if snap.Activity, err = s.Logs(ctx, c.Tracker, activityRows); err != nil {
		return snap, fmt.Errorf("loading activity for %s: %w", c.Tracker, err)
	}
	return snap, nil
}

// sortPostings puts the best-paid postings first; postings without a salary
// keep their order at the end.
func sortPostings(postings []model.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i].SalaryMax, postings[j].SalaryMax
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a > *b
	})
}
