package store

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure MemoryStore implements model.Store.
var _ model.Store = (*MemoryStore)(nil)

type cacheKey struct {
	category string
	date     string
}

// MemoryStore keeps everything in process memory. It backs dry runs and
// tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	postings map[cacheKey][]model.Posting
	stats    map[cacheKey]model.CategoryStats
	trackers map[string]model.TrackerState
	logs     []model.LogEntry // oldest first
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings: make(map[cacheKey][]model.Posting),
		stats:    make(map[cacheKey]model.CategoryStats),
		trackers: make(map[string]model.TrackerState),
		now:      time.Now,
	}
}

func (s *MemoryStore) PutPostings(_ context.Context, category, date string, postings []model.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings[cacheKey{category, date}] = slices.Clone(nonNilPostings(postings))
	return nil
}

func (s *MemoryStore) GetPostings(_ context.Context, category, date string) ([]model.Posting, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.postings[cacheKey{category, date}]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Posting{}, p...), true, nil
}

func (s *MemoryStore) PutStats(_ context.Context, st model.CategoryStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Locations = slices.Clone(nonNilLocations(st.Locations))
	s.stats[cacheKey{st.Category, st.Date}] = st
	return nil
}

func (s *MemoryStore) GetStats(_ context.Context, category, date string) (model.CategoryStats, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[cacheKey{category, date}]
	if !ok {
		return model.CategoryStats{}, false, nil
	}
	return copyStats(st), true, nil
}

func (s *MemoryStore) StatsForDate(_ context.Context, date string) ([]model.CategoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.CategoryStats{}
	for k, st := range s.stats {
		if k.date == date {
			out = append(out, copyStats(st))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *MemoryStore) RecentStats(_ context.Context, category string, n int) ([]model.CategoryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.CategoryStats{}
	for k, st := range s.stats {
		if k.category == category {
			out = append(out, copyStats(st))
		}
	}
	// Dates are yyyy-mm-dd, so string order is chronological.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit := recentLimit(n); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) PutTrackerState(_ context.Context, state model.TrackerState) error {
	if state.LastRun.IsZero() {
		state.LastRun = s.now()
	}
	state.Data = slices.Clone(state.Data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers[state.Name] = state
	return nil
}

func (s *MemoryStore) GetTrackerState(_ context.Context, name string) (model.TrackerState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.trackers[name]
	if !ok {
		return model.TrackerState{}, false, nil
	}
	state.Data = json.RawMessage(slices.Clone(state.Data))
	return state, true, nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry model.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Timestamp = s.now()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemoryStore) Logs(_ context.Context, trackerName string, limit int) ([]model.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = logLimit(limit)
	out := []model.LogEntry{}
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if trackerName == "" || s.logs[i].TrackerName == trackerName {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

// Categories lists every category with cached stats, sorted
// case-insensitively.
func (s *MemoryStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for k := range s.stats {
		seen[k.category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func copyStats(st model.CategoryStats) model.CategoryStats {
	st.Locations = append([]model.LocationCount{}, st.Locations...)
	return st
}
