package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobfloor/internal/model"
)

// runStoreTests exercises the behaviour every backend must share.
func runStoreTests(t *testing.T, open func(t *testing.T) model.Store) {
	t.Run("GetPostingsAbsent", func(t *testing.T) { testGetPostingsAbsent(t, open(t)) })
	t.Run("PutPostingsRoundTrip", func(t *testing.T) { testPutPostingsRoundTrip(t, open(t)) })
	t.Run("PutPostingsReplaces", func(t *testing.T) { testPutPostingsReplaces(t, open(t)) })
	t.Run("EmptyPostingsAreAHit", func(t *testing.T) { testEmptyPostingsAreAHit(t, open(t)) })
	t.Run("StatsUpsertAndLookup", func(t *testing.T) { testStatsUpsert(t, open(t)) })
	t.Run("StatsForDate", func(t *testing.T) { testStatsForDate(t, open(t)) })
	t.Run("RecentStats", func(t *testing.T) { testRecentStats(t, open(t)) })
	t.Run("TrackerState", func(t *testing.T) { testTrackerState(t, open(t)) })
	t.Run("LogsNewestFirst", func(t *testing.T) { testLogsNewestFirst(t, open(t)) })
	t.Run("LogsFilterAndLimit", func(t *testing.T) { testLogsFilterAndLimit(t, open(t)) })
	t.Run("ConcurrentCategories", func(t *testing.T) { testConcurrentCategories(t, open(t)) })
}

func int64Ptr(v int64) *int64 { return &v }

func samplePostings(n int, prefix string) []model.Posting {
	out := make([]model.Posting, n)
	for i := range out {
		out[i] = model.Posting{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			Title:     prefix + " Engineer",
			Company:   "Acme",
			Location:  "Austin, TX",
			SalaryMax: int64Ptr(int64(100000 + i)),
			Source:    "synthetic",
		}
	}
	return out
}

func testGetPostingsAbsent(t *testing.T, s model.Store) {
	ctx := context.Background()
	postings, ok, err := s.GetPostings(ctx, "Data Scientist", "2024-05-01")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if ok {
		t.Error("expected ok=false for an absent key")
	}
	if postings != nil {
		t.Errorf("expected nil postings, got %v", postings)
	}
}

func testPutPostingsRoundTrip(t *testing.T, s model.Store) {
	ctx := context.Background()
	want := samplePostings(3, "a")
	want[1].SalaryMax = nil

	if err := s.PutPostings(ctx, "Data Scientist", "2024-05-01", want); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	got, ok, err := s.GetPostings(ctx, "Data Scientist", "2024-05-01")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true after PutPostings")
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d postings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("posting %d: expected ID %q, got %q", i, want[i].ID, got[i].ID)
		}
	}
	if got[1].SalaryMax != nil {
		t.Errorf("expected missing salary to stay nil, got %d", *got[1].SalaryMax)
	}
	if got[0].SalaryMax == nil || *got[0].SalaryMax != 100000 {
		t.Errorf("expected salary 100000, got %v", got[0].SalaryMax)
	}

	// Other keys stay absent.
	if _, ok, _ := s.GetPostings(ctx, "Data Scientist", "2024-05-02"); ok {
		t.Error("expected a different date to be absent")
	}
}

func testPutPostingsReplaces(t *testing.T, s model.Store) {
	ctx := context.Background()
	if err := s.PutPostings(ctx, "Nurse", "2024-05-01", samplePostings(3, "old")); err != nil {
		t.Fatalf("first PutPostings: %v", err)
	}
	if err := s.PutPostings(ctx, "Nurse", "2024-05-01", samplePostings(1, "new")); err != nil {
		t.Fatalf("second PutPostings: %v", err)
	}

	got, _, err := s.GetPostings(ctx, "Nurse", "2024-05-01")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new-0" {
		t.Errorf("expected the second write to replace the first, got %+v", got)
	}
}

func testEmptyPostingsAreAHit(t *testing.T, s model.Store) {
	ctx := context.Background()
	if err := s.PutPostings(ctx, "Nurse", "2024-05-01", nil); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	got, ok, err := s.GetPostings(ctx, "Nurse", "2024-05-01")
	if err != nil {
		t.Fatalf("GetPostings: %v", err)
	}
	if !ok {
		t.Fatal("expected a stored empty sequence to report ok=true")
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected an empty non-nil slice, got %#v", got)
	}
}

func testStatsUpsert(t *testing.T, s model.Store) {
	ctx := context.Background()

	if _, ok, err := s.GetStats(ctx, "Nurse", "2024-05-01"); err != nil || ok {
		t.Fatalf("expected absent stats, got ok=%v err=%v", ok, err)
	}

	first := model.CategoryStats{
		Category: "Nurse", Date: "2024-05-01", TotalJobs: 4, AvgSalary: 90000,
		Locations: []model.LocationCount{{Name: "Austin, TX", Count: 3}, {Name: "Boston, MA", Count: 1}},
	}
	if err := s.PutStats(ctx, first); err != nil {
		t.Fatalf("PutStats: %v", err)
	}
	second := first
	second.TotalJobs = 7
	second.Locations = nil
	if err := s.PutStats(ctx, second); err != nil {
		t.Fatalf("PutStats (update): %v", err)
	}

	got, ok, err := s.GetStats(ctx, "Nurse", "2024-05-01")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if !ok {
		t.Fatal("expected stats to be present")
	}
	if got.TotalJobs != 7 || got.AvgSalary != 90000 {
		t.Errorf("expected updated row, got %+v", got)
	}
	if got.Locations == nil || len(got.Locations) != 0 {
		t.Errorf("expected empty non-nil locations, got %#v", got.Locations)
	}
}

func testStatsForDate(t *testing.T, s model.Store) {
	ctx := context.Background()
	for _, st := range []model.CategoryStats{
		{Category: "Software Engineer", Date: "2024-05-01", TotalJobs: 10},
		{Category: "Data Scientist", Date: "2024-05-01", TotalJobs: 5},
		{Category: "Data Scientist", Date: "2024-04-30", TotalJobs: 2},
	} {
		if err := s.PutStats(ctx, st); err != nil {
			t.Fatalf("PutStats: %v", err)
		}
	}

	got, err := s.StatsForDate(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("StatsForDate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Category != "Data Scientist" || got[1].Category != "Software Engineer" {
		t.Errorf("expected rows ordered by category, got %q, %q", got[0].Category, got[1].Category)
	}

	none, err := s.StatsForDate(ctx, "1999-01-01")
	if err != nil {
		t.Fatalf("StatsForDate (empty): %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", none)
	}
}

func testRecentStats(t *testing.T, s model.Store) {
	ctx := context.Background()
	for _, d := range []string{"2024-05-02", "2024-04-28", "2024-05-01", "2024-04-30"} {
		if err := s.PutStats(ctx, model.CategoryStats{Category: "Nurse", Date: d}); err != nil {
			t.Fatalf("PutStats: %v", err)
		}
	}
	if err := s.PutStats(ctx, model.CategoryStats{Category: "Other", Date: "2024-06-01"}); err != nil {
		t.Fatalf("PutStats: %v", err)
	}

	got, err := s.RecentStats(ctx, "Nurse", 3)
	if err != nil {
		t.Fatalf("RecentStats: %v", err)
	}
	want := []string{"2024-05-02", "2024-05-01", "2024-04-30"}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i, d := range want {
		if got[i].Date != d {
			t.Errorf("row %d: expected date %s, got %s", i, d, got[i].Date)
		}
	}

	// A non-positive n falls back to the default window.
	for day := 1; day <= 9; day++ {
		st := model.CategoryStats{Category: "Welder", Date: fmt.Sprintf("2024-03-%02d", day)}
		if err := s.PutStats(ctx, st); err != nil {
			t.Fatalf("PutStats: %v", err)
		}
	}
	def, err := s.RecentStats(ctx, "Welder", 0)
	if err != nil {
		t.Fatalf("RecentStats(0): %v", err)
	}
	if len(def) != model.DefaultRecentStats || def[0].Date != "2024-03-09" {
		t.Errorf("expected %d rows from 2024-03-09, got %d", model.DefaultRecentStats, len(def))
	}
}

func testTrackerState(t *testing.T, s model.Store) {
	ctx := context.Background()

	if _, ok, err := s.GetTrackerState(ctx, "NurseTracker"); err != nil || ok {
		t.Fatalf("expected absent tracker, got ok=%v err=%v", ok, err)
	}

	before := time.Now().Add(-time.Second)
	if err := s.PutTrackerState(ctx, model.TrackerState{
		Name: "NurseTracker", Category: "Nurse", TotalTracked: 3,
		Data: json.RawMessage(`{"cursor":1}`),
	}); err != nil {
		t.Fatalf("PutTrackerState: %v", err)
	}

	got, ok, err := s.GetTrackerState(ctx, "NurseTracker")
	if err != nil {
		t.Fatalf("GetTrackerState: %v", err)
	}
	if !ok {
		t.Fatal("expected tracker to be present")
	}
	if got.LastRun.Before(before) {
		t.Errorf("expected zero LastRun to default to now, got %v", got.LastRun)
	}
	if got.TotalTracked != 3 || got.Category != "Nurse" {
		t.Errorf("unexpected state %+v", got)
	}

	var data map[string]int
	if err := json.Unmarshal(got.Data, &data); err != nil || data["cursor"] != 1 {
		t.Errorf("expected opaque data to survive, got %s (err %v)", got.Data, err)
	}

	lastRun := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	if err := s.PutTrackerState(ctx, model.TrackerState{
		Name: "NurseTracker", Category: "Nurse", TotalTracked: 9, LastRun: lastRun,
	}); err != nil {
		t.Fatalf("PutTrackerState (overwrite): %v", err)
	}
	got, _, err = s.GetTrackerState(ctx, "NurseTracker")
	if err != nil {
		t.Fatalf("GetTrackerState: %v", err)
	}
	if got.TotalTracked != 9 || !got.LastRun.Equal(lastRun) {
		t.Errorf("expected overwritten state, got %+v", got)
	}
	if len(got.Data) != 0 {
		t.Errorf("expected data to be cleared by the overwrite, got %s", got.Data)
	}
}

func testLogsNewestFirst(t *testing.T, s model.Store) {
	ctx := context.Background()
	for _, msg := range []string{"first", "second", "third"} {
		if err := s.AppendLog(ctx, model.LogEntry{
			TrackerName: "NurseTracker", LogType: model.LogTypeFetch, Message: msg,
			Timestamp: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), // ignored
		}); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	got, err := s.Logs(ctx, "", 0)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Message != "third" || got[2].Message != "first" {
		t.Errorf("expected newest first, got %q..%q", got[0].Message, got[2].Message)
	}
	if got[0].Timestamp.Year() == 2000 {
		t.Error("expected the store to assign the timestamp")
	}
}

func testLogsFilterAndLimit(t *testing.T, s model.Store) {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		tracker := "A"
		if i%2 == 1 {
			tracker = "B"
		}
		if err := s.AppendLog(ctx, model.LogEntry{
			TrackerName: tracker, LogType: model.LogTypeFetch, Message: fmt.Sprintf("m%d", i),
		}); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	onlyA, err := s.Logs(ctx, "A", 0)
	if err != nil {
		t.Fatalf("Logs(A): %v", err)
	}
	if len(onlyA) != 3 {
		t.Fatalf("expected 3 entries for A, got %d", len(onlyA))
	}
	for _, e := range onlyA {
		if e.TrackerName != "A" {
			t.Errorf("unexpected tracker %q in filtered logs", e.TrackerName)
		}
	}

	limited, err := s.Logs(ctx, "", 2)
	if err != nil {
		t.Fatalf("Logs(limit): %v", err)
	}
	if len(limited) != 2 || limited[0].Message != "m4" || limited[1].Message != "m3" {
		t.Errorf("expected [m4 m3], got %+v", limited)
	}

	none, err := s.Logs(ctx, "nobody", 10)
	if err != nil {
		t.Fatalf("Logs(nobody): %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", none)
	}
}

func testConcurrentCategories(t *testing.T, s model.Store) {
	ctx := context.Background()
	categories := []string{"A", "B", "C", "D"}

	var wg sync.WaitGroup
	for _, c := range categories {
		wg.Add(1)
		go func(category string) {
			defer wg.Done()
			if err := s.PutPostings(ctx, category, "2024-05-01", samplePostings(2, category)); err != nil {
				t.Errorf("PutPostings(%s): %v", category, err)
				return
			}
			if err := s.PutStats(ctx, model.CategoryStats{Category: category, Date: "2024-05-01", TotalJobs: 2}); err != nil {
				t.Errorf("PutStats(%s): %v", category, err)
			}
		}(c)
	}
	wg.Wait()

	got, err := s.StatsForDate(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("StatsForDate: %v", err)
	}
	if len(got) != len(categories) {
		t.Errorf("expected %d rows, got %d", len(categories), len(got))
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverSQLite, Path: t.TempDir() + "/jobs.db"})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("expected *SQLiteStore, got %T", s)
	}

	m, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := m.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", m)
	}

	if _, err := Open(ctx, Options{Driver: "mongo"}); !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for unknown driver, got %v", err)
	}
}
