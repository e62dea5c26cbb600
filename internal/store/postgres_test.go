package store

import (
	"context"
	"os"
	"testing"

	"github.com/amishk599/jobfloor/internal/model"
)

// newTestPostgresStore connects to JOBFLOOR_TEST_POSTGRES_URL and empties
// every table. Tests are skipped when the variable is unset.
func newTestPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("JOBFLOOR_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("JOBFLOOR_TEST_POSTGRES_URL not set")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.pool.Exec(ctx, "TRUNCATE jobs, job_stats, trackers, logs RESTART IDENTITY"); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
	return s
}

func TestPostgresStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) model.Store { return newTestPostgresStore(t) })
}

func TestNewPostgresStoreBadURL(t *testing.T) {
	if _, err := NewPostgresStore(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected an error for a malformed URL")
	}
}
