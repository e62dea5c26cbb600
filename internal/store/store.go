package store

import (
	"context"
	"fmt"

	"github.com/amishk599/jobfloor/internal/model"
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and locates a backend.
type Options struct {
	Driver string
	Path   string // sqlite file
	URL    string // redis or postgres connection URL
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (model.Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLiteStore(opts.Path)
	case DriverRedis:
		return NewRedisStore(ctx, opts.URL)
	case DriverPostgres:
		return NewPostgresStore(ctx, opts.URL)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q: %w", opts.Driver, model.ErrInvalidConfiguration)
	}
}

// unavailable tags a backend failure with model.ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

func logLimit(limit int) int {
	if limit <= 0 {
		return model.DefaultLogLimit
	}
	return limit
}

// recentLimit treats n <= 0 as a request for the default window.
func recentLimit(n int) int {
	if n <= 0 {
		return model.DefaultRecentStats
	}
	return n
}

// nonNilPostings keeps a stored empty sequence distinguishable from "absent"
// once it is serialized.
func nonNilPostings(p []model.Posting) []model.Posting {
	if p == nil {
		return []model.Posting{}
	}
	return p
}

func nonNilLocations(l []model.LocationCount) []model.LocationCount {
	if l == nil {
		return []model.LocationCount{}
	}
	return l
}
