package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure RedisStore implements model.Store.
var _ model.Store = (*RedisStore)(nil)

const redisPrefix = "jobfloor:"

// RedisStore keeps every record as a JSON string under a jobfloor: key.
// Secondary indexes make the by-date and recent-stats reads possible:
//
//	stats:bydate:{date}  set of categories with stats for date
//	stats:dates:{cat}    sorted set of dates, scored yyyymmdd
//	logs, logs:{tracker} lists, newest at the head
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client. The store owns it from
// then on and closes it in Close.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func postingsKey(category, date string) string {
	return redisPrefix + "postings:" + category + ":" + date
}

func statsKey(category, date string) string {
	return redisPrefix + "stats:" + category + ":" + date
}

func statsByDateKey(date string) string { return redisPrefix + "stats:bydate:" + date }

func statsDatesKey(category string) string { return redisPrefix + "stats:dates:" + category }

func trackerKey(name string) string { return redisPrefix + "tracker:" + name }

func logsKey(trackerName string) string {
	if trackerName == "" {
		return redisPrefix + "logs"
	}
	return redisPrefix + "logs:" + trackerName
}

// dateScore turns "2024-05-01" into 20240501 so the sorted set orders by day.
func dateScore(date string) float64 {
	n, err := strconv.Atoi(strings.ReplaceAll(date, "-", ""))
	if err != nil {
		return 0
	}
	return float64(n)
}

func (s *RedisStore) PutPostings(ctx context.Context, category, date string, postings []model.Posting) error {
	data, err := json.Marshal(nonNilPostings(postings))
	if err != nil {
		return fmt.Errorf("encoding postings for %s/%s: %w", category, date, err)
	}
	if err := s.client.Set(ctx, postingsKey(category, date), data, 0).Err(); err != nil {
		return unavailable(fmt.Sprintf("writing postings for %s/%s", category, date), err)
	}
	return nil
}

func (s *RedisStore) GetPostings(ctx context.Context, category, date string) ([]model.Posting, bool, error) {
	data, err := s.client.Get(ctx, postingsKey(category, date)).Bytes()
	if errors.Is(err, redis.Nil) {
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

// PutStats writes the row and both indexes in one MULTI/EXEC.
func (s *RedisStore) PutStats(ctx context.Context, st model.CategoryStats) error {
	st.Locations = nonNilLocations(st.Locations)
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding stats for %s/%s: %w", st.Category, st.Date, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, statsKey(st.Category, st.Date), data, 0)
		pipe.SAdd(ctx, statsByDateKey(st.Date), st.Category)
		pipe.ZAdd(ctx, statsDatesKey(st.Category), redis.Z{Score: dateScore(st.Date), Member: st.Date})
		return nil
	})
	if err != nil {
		return unavailable(fmt.Sprintf("writing stats for %s/%s", st.Category, st.Date), err)
	}
	return nil
}

func (s *RedisStore) GetStats(ctx context.Context, category, date string) (model.CategoryStats, bool, error) {
	data, err := s.client.Get(ctx, statsKey(category, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CategoryStats{}, false, nil
	}
	if err != nil {
		return model.CategoryStats{}, false, unavailable(fmt.Sprintf("reading stats for %s/%s", category, date), err)
	}
	st, err := decodeStats(data)
	if err != nil {
		return model.CategoryStats{}, false, err
	}
	return st, true, nil
}

func (s *RedisStore) StatsForDate(ctx context.Context, date string) ([]model.CategoryStats, error) {
	categories, err := s.client.SMembers(ctx, statsByDateKey(date)).Result()
	if err != nil {
		return nil, unavailable("reading stats index for "+date, err)
	}
	sort.Strings(categories)

	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = statsKey(c, date)
	}
	return s.loadStats(ctx, "stats for "+date, keys)
}

func (s *RedisStore) RecentStats(ctx context.Context, category string, n int) ([]model.CategoryStats, error) {
	dates, err := s.client.ZRevRange(ctx, statsDatesKey(category), 0, int64(recentLimit(n)-1)).Result()
	if err != nil {
		return nil, unavailable("reading stats dates for "+category, err)
	}

	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = statsKey(category, d)
	}
	return s.loadStats(ctx, "recent stats for "+category, keys)
}

// loadStats fetches keys in order, skipping any that vanished since the
// index was read.
func (s *RedisStore) loadStats(ctx context.Context, what string, keys []string) ([]model.CategoryStats, error) {
	out := []model.CategoryStats{}
	if len(keys) == 0 {
		return out, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("reading "+what, err)
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		st, err := decodeStats([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func decodeStats(data []byte) (model.CategoryStats, error) {
	var st model.CategoryStats
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decoding stats: %w", err)
	}
	st.Locations = nonNilLocations(st.Locations)
	return st, nil
}

func (s *RedisStore) PutTrackerState(ctx context.Context, state model.TrackerState) error {
	if state.LastRun.IsZero() {
		state.LastRun = s.now()
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding tracker %s: %w", state.Name, err)
	}
	if err := s.client.Set(ctx, trackerKey(state.Name), data, 0).Err(); err != nil {
		return unavailable("writing tracker "+state.Name, err)
	}
	return nil
}

func (s *RedisStore) GetTrackerState(ctx context.Context, name string) (model.TrackerState, bool, error) {
	data, err := s.client.Get(ctx, trackerKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.TrackerState{}, false, nil
	}
	if err != nil {
		return model.TrackerState{}, false, unavailable("reading tracker "+name, err)
	}

	var state model.TrackerState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.TrackerState{}, false, fmt.Errorf("decoding tracker %s: %w", name, err)
	}
	return state, true, nil
}

// AppendLog pushes the entry onto the global list and the tracker's list.
func (s *RedisStore) AppendLog(ctx context.Context, entry model.LogEntry) error {
	entry.Timestamp = s.now()
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding log for %s: %w", entry.TrackerName, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, logsKey(""), data)
		if entry.TrackerName != "" {
			pipe.LPush(ctx, logsKey(entry.TrackerName), data)
		}
		return nil
	})
	if err != nil {
		return unavailable("appending log for "+entry.TrackerName, err)
	}
	return nil
}

func (s *RedisStore) Logs(ctx context.Context, trackerName string, limit int) ([]model.LogEntry, error) {
	values, err := s.client.LRange(ctx, logsKey(trackerName), 0, int64(logLimit(limit)-1)).Result()
	if err != nil {
		return nil, unavailable("reading logs", err)
	}

	out := make([]model.LogEntry, 0, len(values))
	for _, v := range values {
		var e model.LogEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decoding log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
