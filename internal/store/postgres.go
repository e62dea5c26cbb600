package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure PostgresStore implements model.Store.
var _ model.Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	category   TEXT NOT NULL,
	date       TEXT NOT NULL,
	job_data   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (category, date)
);
CREATE TABLE IF NOT EXISTS job_stats (
	category   TEXT NOT NULL,
	date       TEXT NOT NULL,
	total_jobs INTEGER NOT NULL,
	avg_salary BIGINT NOT NULL,
	locations  JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (category, date)
);
CREATE TABLE IF NOT EXISTS trackers (
	name          TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	total_tracked INTEGER NOT NULL DEFAULT 0,
	last_run      TIMESTAMPTZ NOT NULL,
	data          JSONB
);
CREATE TABLE IF NOT EXISTS logs (
	id           BIGSERIAL PRIMARY KEY,
	tracker_name TEXT NOT NULL,
	log_type     TEXT NOT NULL,
	message      TEXT NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logs_tracker_ts ON logs (tracker_name, timestamp);
`

// PostgresStore is the shared-database backend. It uses the same table
// layout as SQLiteStore with JSONB payload columns.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects to databaseURL, verifies the pool and ensures
// all tables exist.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

func (s *PostgresStore) PutPostings(ctx context.Context, category, date string, postings []model.Posting) error {
	data, err := json.Marshal(nonNilPostings(postings))
	if err != nil {
		return fmt.Errorf("encoding postings for %s/%s: %w", category, date, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO jobs (category, date, job_data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (category, date) DO UPDATE SET
			job_data = EXCLUDED.job_data,
			updated_at = EXCLUDED.updated_at`,
		category, date, data, s.now(),
	)
	if err != nil {
		return unavailable(fmt.Sprintf("writing postings for %s/%s", category, date), err)
	}
	return nil
}

func (s *PostgresStore) GetPostings(ctx context.Context, category, date string) ([]model.Posting, bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT job_data FROM jobs WHERE category = $1 AND date = $2", category, date,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(fmt.Sprintf("reading postings for %s/%s", category, date), err)
	}

	postings := []model.Posting{}
	if err := json.Unmarshal(data, &postings); err != nil {
		return nil, false, fmt.Errorf("decoding postings for %s/%s: %w", category, date, err)
	}
	return postings, true, nil
}

func (s *PostgresStore) PutStats(ctx context.Context, st model.CategoryStats) error {
	locations, err := json.Marshal(nonNilLocations(st.Locations))
	if err != nil {
		return fmt.Errorf("encoding locations for %s/%s: %w", st.Category, st.Date, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO job_stats (category, date, total_jobs, avg_salary, locations, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, date) DO UPDATE SET
			total_jobs = EXCLUDED.total_jobs,
			avg_salary = EXCLUDED.avg_salary,
			locations = EXCLUDED.locations,
			updated_at = EXCLUDED.updated_at`,
		st.Category, st.Date, st.TotalJobs, st.AvgSalary, locations, s.now(),
	)
	if err != nil {
		return unavailable(fmt.Sprintf("writing stats for %s/%s", st.Category, st.Date), err)
	}
	return nil
}

func (s *PostgresStore) GetStats(ctx context.Context, category, date string) (model.CategoryStats, bool, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+statsColumns+" FROM job_stats WHERE category = $1 AND date = $2", category, date)
	st, err := scanPgStats(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CategoryStats{}, false, nil
	}
	if err != nil {
		return model.CategoryStats{}, false, unavailable(fmt.Sprintf("reading stats for %s/%s", category, date), err)
	}
	return st, true, nil
}

func (s *PostgresStore) StatsForDate(ctx context.Context, date string) ([]model.CategoryStats, error) {
	return s.queryStats(ctx, "stats for "+date,
		"SELECT "+statsColumns+" FROM job_stats WHERE date = $1 ORDER BY category", date)
}

func (s *PostgresStore) RecentStats(ctx context.Context, category string, n int) ([]model.CategoryStats, error) {
	return s.queryStats(ctx, "recent stats for "+category,
		"SELECT "+statsColumns+" FROM job_stats WHERE category = $1 ORDER BY date DESC LIMIT $2",
		category, recentLimit(n))
}

func scanPgStats(row pgx.Row) (model.CategoryStats, error) {
	var st model.CategoryStats
	var locations []byte
	if err := row.Scan(&st.Category, &st.Date, &st.TotalJobs, &st.AvgSalary, &locations); err != nil {
		return st, err
	}
	st.Locations = []model.LocationCount{}
	if err := json.Unmarshal(locations, &st.Locations); err != nil {
		return st, fmt.Errorf("decoding locations for %s/%s: %w", st.Category, st.Date, err)
	}
	return st, nil
}

func (s *PostgresStore) queryStats(ctx context.Context, what, query string, args ...any) ([]model.CategoryStats, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("reading "+what, err)
	}
	defer rows.Close()

	out := []model.CategoryStats{}
	for rows.Next() {
		st, err := scanPgStats(rows)
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

func (s *PostgresStore) PutTrackerState(ctx context.Context, state model.TrackerState) error {
	if state.LastRun.IsZero() {
		state.LastRun = s.now()
	}
	var data []byte
	if len(state.Data) > 0 {
		data = state.Data
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO trackers (name, category, total_tracked, last_run, data) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			category = EXCLUDED.category,
			total_tracked = EXCLUDED.total_tracked,
			last_run = EXCLUDED.last_run,
			data = EXCLUDED.data`,
		state.Name, state.Category, state.TotalTracked, state.LastRun, data,
	)
	if err != nil {
		return unavailable("writing tracker "+state.Name, err)
	}
	return nil
}

func (s *PostgresStore) GetTrackerState(ctx context.Context, name string) (model.TrackerState, bool, error) {
	state := model.TrackerState{Name: name}
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT category, total_tracked, last_run, data FROM trackers WHERE name = $1", name,
	).Scan(&state.Category, &state.TotalTracked, &state.LastRun, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TrackerState{}, false, nil
	}
	if err != nil {
		return model.TrackerState{}, false, unavailable("reading tracker "+name, err)
	}
	if len(data) > 0 {
		state.Data = json.RawMessage(data)
	}
	return state, true, nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, entry model.LogEntry) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO logs (tracker_name, log_type, message, timestamp) VALUES ($1, $2, $3, $4)",
		entry.TrackerName, entry.LogType, entry.Message, s.now(),
	)
	if err != nil {
		return unavailable("appending log for "+entry.TrackerName, err)
	}
	return nil
}

func (s *PostgresStore) Logs(ctx context.Context, trackerName string, limit int) ([]model.LogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tracker_name, log_type, message, timestamp FROM logs
		WHERE $1 = '' OR tracker_name = $1
		ORDER BY timestamp DESC, id DESC LIMIT $2`,
		trackerName, logLimit(limit),
	)
	if err != nil {
		return nil, unavailable("reading logs", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.LogEntry, error) {
		var e model.LogEntry
		err := row.Scan(&e.TrackerName, &e.LogType, &e.Message, &e.Timestamp)
		return e, err
	})
	if err != nil {
		return nil, unavailable("reading logs", err)
	}
	if out == nil {
		out = []model.LogEntry{}
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
