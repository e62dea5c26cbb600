package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure SQLiteStore implements model.Store.
var _ model.Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	category   TEXT NOT NULL,
	date       TEXT NOT NULL,
	job_data   TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (category, date)
);
CREATE TABLE IF NOT EXISTS job_stats (
	category   TEXT NOT NULL,
	date       TEXT NOT NULL,
	total_jobs INTEGER NOT NULL,
	avg_salary INTEGER NOT NULL,
	locations  TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (category, date)
);
CREATE TABLE IF NOT EXISTS trackers (
	name          TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	total_tracked INTEGER NOT NULL DEFAULT 0,
	last_run      INTEGER NOT NULL,
	data          TEXT
);
CREATE TABLE IF NOT EXISTS logs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	tracker_name TEXT NOT NULL,
	log_type     TEXT NOT NULL,
	message      TEXT NOT NULL,
	timestamp    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_tracker_ts ON logs (tracker_name, timestamp);
`

// SQLiteStore persists postings, stats, tracker state and logs in a single
// SQLite database. Every write is one statement, so readers never see a
// partially written row.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// all tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL lets dashboard readers proceed while a pass is writing; busy_timeout
	// makes concurrent category writers wait instead of failing.
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// sqliteDSN appends the pragmas, keeping any query string already in dbPath.
func sqliteDSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// PutPostings replaces the cached postings for (category, date).
func (s *SQLiteStore) PutPostings(ctx context.Context, category, date string, postings []model.Posting) error {
	data, err := json.Marshal(nonNilPostings(postings))
	if err != nil {
		return fmt.Errorf("encoding postings for %s/%s: %w", category, date, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (category, date, job_data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (category, date) DO UPDATE SET
			job_data = excluded.job_data,
			updated_at = excluded.updated_at`,
		category, date, string(data), s.now().UnixNano(),
	)
	if err != nil {
		return unavailable(fmt.Sprintf("writing postings for %s/%s", category, date), err)
	}
	return nil
}

// GetPostings returns the cached postings for (category, date), ok=false if none.
func (s *SQLiteStore) GetPostings(ctx context.Context, category, date string) ([]model.Posting, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT job_data FROM jobs WHERE category = ? AND date = ?", category, date,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(fmt.Sprintf("reading postings for %s/%s", category, date), err)
	}

	postings := []model.Posting{}
	if err := json.Unmarshal([]byte(data), &postings); err != nil {
		return nil, false, fmt.Errorf("decoding postings for %s/%s: %w", category, date, err)
	}
	return postings, true, nil
}

// PutStats upserts stats on (stats.Category, stats.Date).
func (s *SQLiteStore) PutStats(ctx context.Context, st model.CategoryStats) error {
	locations, err := json.Marshal(nonNilLocations(st.Locations))
	if err != nil {
		return fmt.Errorf("encoding locations for %s/%s: %w", st.Category, st.Date, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO job_stats (category, date, total_jobs, avg_salary, locations, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (category, date) DO UPDATE SET
			total_jobs = excluded.total_jobs,
			avg_salary = excluded.avg_salary,
			locations = excluded.locations,
			updated_at = excluded.updated_at`,
		st.Category, st.Date, st.TotalJobs, st.AvgSalary, string(locations), s.now().UnixNano(),
	)
	if err != nil {
		return unavailable(fmt.Sprintf("writing stats for %s/%s", st.Category, st.Date), err)
	}
	return nil
}

const statsColumns = "category, date, total_jobs, avg_salary, locations"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStats(row rowScanner) (model.CategoryStats, error) {
	var st model.CategoryStats
	var locations string
	if err := row.Scan(&st.Category, &st.Date, &st.TotalJobs, &st.AvgSalary, &locations); err != nil {
		return st, err
	}
	st.Locations = []model.LocationCount{}
	if err := json.Unmarshal([]byte(locations), &st.Locations); err != nil {
		return st, fmt.Errorf("decoding locations for %s/%s: %w", st.Category, st.Date, err)
	}
	return st, nil
}

// GetStats returns the stats row for (category, date), ok=false if none.
func (s *SQLiteStore) GetStats(ctx context.Context, category, date string) (model.CategoryStats, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+statsColumns+" FROM job_stats WHERE category = ? AND date = ?", category, date)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CategoryStats{}, false, nil
	}
	if err != nil {
		return model.CategoryStats{}, false, unavailable(fmt.Sprintf("reading stats for %s/%s", category, date), err)
	}
	return st, true, nil
}

// StatsForDate returns every category's stats for date, ordered by category.
func (s *SQLiteStore) StatsForDate(ctx context.Context, date string) ([]model.CategoryStats, error) {
	return s.queryStats(ctx, "stats for "+date,
		"SELECT "+statsColumns+" FROM job_stats WHERE date = ? ORDER BY category", date)
}

// RecentStats returns up to n stats rows for category, newest date first.
func (s *SQLiteStore) RecentStats(ctx context.Context, category string, n int) ([]model.CategoryStats, error) {
	return s.queryStats(ctx, "recent stats for "+category,
		"SELECT "+statsColumns+" FROM job_stats WHERE category = ? ORDER BY date DESC LIMIT ?",
		category, recentLimit(n))
}

func (s *SQLiteStore) queryStats(ctx context.Context, what, query string, args ...any) ([]model.CategoryStats, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("reading "+what, err)
	}
	defer rows.Close()

	out := []model.CategoryStats{}
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, unavailable("scanning "+what, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading "+what, err)
	}
	return out, nil
}

// PutTrackerState overwrites the tracker's state. A zero LastRun is set to now.
func (s *SQLiteStore) PutTrackerState(ctx context.Context, state model.TrackerState) error {
	if state.LastRun.IsZero() {
		state.LastRun = s.now()
	}
	var data sql.NullString
	if len(state.Data) > 0 {
		data = sql.NullString{String: string(state.Data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trackers (name, category, total_tracked, last_run, data) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			category = excluded.category,
			total_tracked = excluded.total_tracked,
			last_run = excluded.last_run,
			data = excluded.data`,
		state.Name, state.Category, state.TotalTracked, state.LastRun.UnixNano(), data,
	)
	if err != nil {
		return unavailable("writing tracker "+state.Name, err)
	}
	return nil
}

// GetTrackerState returns the tracker's state, ok=false if it was never written.
func (s *SQLiteStore) GetTrackerState(ctx context.Context, name string) (model.TrackerState, bool, error) {
	state := model.TrackerState{Name: name}
	var lastRun int64
	var data sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT category, total_tracked, last_run, data FROM trackers WHERE name = ?", name,
	).Scan(&state.Category, &state.TotalTracked, &lastRun, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TrackerState{}, false, nil
	}
	if err != nil {
		return model.TrackerState{}, false, unavailable("reading tracker "+name, err)
	}
	state.LastRun = time.Unix(0, lastRun)
	if data.Valid {
		state.Data = json.RawMessage(data.String)
	}
	return state, true, nil
}

// AppendLog records entry with the current time as its timestamp.
func (s *SQLiteStore) AppendLog(ctx context.Context, entry model.LogEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO logs (tracker_name, log_type, message, timestamp) VALUES (?, ?, ?, ?)",
		entry.TrackerName, entry.LogType, entry.Message, s.now().UnixNano(),
	)
	if err != nil {
		return unavailable("appending log for "+entry.TrackerName, err)
	}
	return nil
}

// Logs returns up to limit entries, newest first, optionally for one tracker.
func (s *SQLiteStore) Logs(ctx context.Context, trackerName string, limit int) ([]model.LogEntry, error) {
	query := "SELECT tracker_name, log_type, message, timestamp FROM logs"
	args := []any{}
	if trackerName != "" {
		query += " WHERE tracker_name = ?"
		args = append(args, trackerName)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, logLimit(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("reading logs", err)
	}
	defer rows.Close()

	out := []model.LogEntry{}
	for rows.Next() {
		var e model.LogEntry
		var ts int64
		if err := rows.Scan(&e.TrackerName, &e.LogType, &e.Message, &ts); err != nil {
			return nil, unavailable("scanning logs", err)
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("reading logs", err)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
