package model

import (
	"context"
	"encoding/json"
	"time"
)

// DateLayout is the format of the per-day cache key.
const DateLayout = "2006-01-02"

// DateKey formats t as a cache date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Posting is one job listing normalized from any provider.
// Fields a provider did not supply stay nil rather than zero.
type Posting struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"` // "City, State"
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	SalaryMin      *int64   `json:"salary_min"`
	SalaryMax      *int64   `json:"salary_max"`
	EmploymentType string   `json:"employment_type,omitempty"`
	PostedDate     string   `json:"posted_date,omitempty"`
	ApplyLink      string   `json:"apply_link,omitempty"`
	Description    string   `json:"description,omitempty"`
	Source         string   `json:"source"` // provider name, "synthetic" for generated data
}

// LocationCount is one entry of the top-locations breakdown.
type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryStats is derived from the cached postings of one (category, date).
type CategoryStats struct {
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	TotalJobs int             `json:"total_jobs"`
	AvgSalary int64           `json:"avg_salary"`
	Locations []LocationCount `json:"locations"`
}

// TrackerState is owned by the calling layer. Data is never interpreted here.
type TrackerState struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	TotalTracked int             `json:"total_tracked"`
	LastRun      time.Time       `json:"last_run"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// LogEntry is an append-only activity record.
type LogEntry struct {
	TrackerName string    `json:"tracker_name"`
	LogType     string    `json:"log_type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Log types written by the core.
const (
	LogTypeFetch        = "fetch"
	LogTypeError        = "error"
	LogTypeNotification = "notification"
)

// Read defaults applied when callers pass a non-positive limit.
const (
	DefaultLogLimit    = 100
	DefaultRecentStats = 7
)

// Recency limits how old fetched postings may be.
type Recency string

const (
	RecencyAll   Recency = "all"
	RecencyToday Recency = "today"
	Recency3Days Recency = "3days"
	RecencyWeek  Recency = "week"
	RecencyMonth Recency = "month"
)

// Valid reports whether r is one of the known recency windows.
func (r Recency) Valid() bool {
	switch r {
	case RecencyAll, RecencyToday, Recency3Days, RecencyWeek, RecencyMonth:
		return true
	}
	return false
}

// Query describes what to ask a job source for.
type Query struct {
	Text     string
	Location string
	Recency  Recency
}

// JobSource fetches postings for a query. Live sources report failures with
// an error wrapping ErrSourceUnavailable and a nil slice.
type JobSource interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Posting, error)
}

// PostingStore holds the per-day posting cache.
type PostingStore interface {
	PutPostings(ctx context.Context, category, date string, postings []Posting) error
	// GetPostings reports ok=false when nothing is cached for the key.
	GetPostings(ctx context.Context, category, date string) (postings []Posting, ok bool, err error)
}

// StatsStore holds derived per-day category statistics.
type StatsStore interface {
	PutStats(ctx context.Context, stats CategoryStats) error
	GetStats(ctx context.Context, category, date string) (CategoryStats, bool, error)
	StatsForDate(ctx context.Context, date string) ([]CategoryStats, error)
	RecentStats(ctx context.Context, category string, n int) ([]CategoryStats, error)
}

// TrackerStore holds opaque per-tracker state.
type TrackerStore interface {
	PutTrackerState(ctx context.Context, state TrackerState) error
	GetTrackerState(ctx context.Context, name string) (TrackerState, bool, error)
}

// LogStore is the append-only activity log. Logs returns newest first;
// an empty trackerName means all trackers.
type LogStore interface {
	AppendLog(ctx context.Context, entry LogEntry) error
	Logs(ctx context.Context, trackerName string, limit int) ([]LogEntry, error)
}

// Store is the full persistence surface.
type Store interface {
	PostingStore
	StatsStore
	TrackerStore
	LogStore
	Close() error
}

// Notifier delivers a tracker message to whoever is listening.
type Notifier interface {
	Notify(ctx context.Context, trackerName, message string) error
}
