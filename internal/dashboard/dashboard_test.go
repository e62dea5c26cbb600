package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/store"
)

var testCategory = config.CategoryConfig{Name: "Data Analyst", Label: "Data Analysts", Tracker: "DA_Tracker"}

func int64Ptr(v int64) *int64 { return &v }

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func seeded(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	postings := []model.Posting{
		{Title: "Junior Analyst", Company: "A", Location: "Austin, TX"},
		{Title: "Senior Analyst", Company: "B", Location: "Boston, MA", SalaryMax: int64Ptr(180000), ApplyLink: "https://b.example/apply"},
		{Title: "Analyst", Company: "C", Location: "Austin, TX", SalaryMin: int64Ptr(80000), SalaryMax: int64Ptr(120000)},
	}
	if err := s.PutPostings(ctx, testCategory.Name, "2024-05-01", postings); err != nil {
		t.Fatal(err)
	}
	for _, st := range []model.CategoryStats{
		{Category: testCategory.Name, Date: "2024-05-01", TotalJobs: 3, AvgSalary: 150000,
			Locations: []model.LocationCount{{Name: "Austin, TX", Count: 2}, {Name: "Boston, MA", Count: 1}}},
		{Category: testCategory.Name, Date: "2024-04-30", TotalJobs: 5},
	} {
		if err := s.PutStats(ctx, st); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AppendLog(ctx, model.LogEntry{TrackerName: "DA_Tracker", LogType: model.LogTypeFetch, Message: "fetched 3 postings"}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), seeded(t), testCategory, "2024-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !snap.Cached || len(snap.Postings) != 3 {
		t.Fatalf("expected 3 cached postings, got cached=%v n=%d", snap.Cached, len(snap.Postings))
	}
	// Highest salary first, unsalaried last.
	if snap.Postings[0].Company != "B" || snap.Postings[1].Company != "C" || snap.Postings[2].Company != "A" {
		t.Errorf("unexpected order: %+v", snap.Postings)
	}
	if snap.Stats == nil || snap.Stats.TotalJobs != 3 {
		t.Errorf("stats = %+v", snap.Stats)
	}
	if snap.Salaries.Count != 2 || snap.Salaries.Max != 180000 {
		t.Errorf("salaries = %+v", snap.Salaries)
	}
	if len(snap.Recent) != 2 || snap.Recent[0].Date != "2024-05-01" {
		t.Errorf("recent = %+v", snap.Recent)
	}
	if len(snap.Activity) != 1 {
		t.Errorf("activity = %+v", snap.Activity)
	}
}

func TestLoadSnapshot_NothingCached(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), store.NewMemoryStore(), testCategory, "2024-05-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Cached || snap.Stats != nil || len(snap.Postings) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}
	if !strings.Contains(renderSummary(snap), "not fetched yet") {
		t.Errorf("summary should say the day was not fetched")
	}
}

func TestLoadSnapshot_StoreDown(t *testing.T) {
	s, err := store.NewSQLiteStore(t.TempDir() + "/jobs.db")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	_, err = LoadSnapshot(context.Background(), s, testCategory, "2024-05-01")
	if !errors.Is(err, model.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestPicker_NavigateAndSelect(t *testing.T) {
	m := newPickerModel([]config.CategoryConfig{testCategory, {Name: "Software Engineer", Label: "Software Engineers", Tracker: "SE_Tracker"}}, "2024-05-01", 0)

	var tm tea.Model = m
	tm, _ = tm.Update(key("j"))
	tm, _ = tm.Update(key("j")) // stays on last
	tm, cmd := tm.Update(key("enter"))

	got := tm.(pickerModel)
	if got.chosen != 1 {
		t.Errorf("chosen = %d, want 1", got.chosen)
	}
	if cmd == nil {
		t.Error("expected quit command after selection")
	}
	if !strings.Contains(got.View(), "SE_Tracker") {
		t.Error("view should list tracker names")
	}
}

func TestPicker_Quit(t *testing.T) {
	var tm tea.Model = newPickerModel([]config.CategoryConfig{testCategory}, "2024-05-01", 7)
	if c := tm.(pickerModel).cursor; c != 0 {
		t.Errorf("start cursor should be clamped, got %d", c)
	}
	tm, _ = tm.Update(key("q"))
	if tm.(pickerModel).chosen != pickerQuit {
		t.Errorf("expected pickerQuit")
	}
}

func TestLoader_DoneAndCancel(t *testing.T) {
	var tm tea.Model = newLoaderModel("Data Analysts", nil)
	if !strings.Contains(tm.View(), "reading Data Analysts") {
		t.Errorf("view = %q", tm.View())
	}

	want := Snapshot{Date: "2024-05-01"}
	tm, _ = tm.Update(snapshotLoadedMsg{snap: want})
	got := tm.(loaderModel)
	if !got.done || got.snap.Date != want.Date || got.err != nil {
		t.Errorf("loader = %+v", got)
	}
	if got.View() != "" {
		t.Errorf("finished loader should render nothing")
	}

	tm, _ = newLoaderModel("x", nil).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !errors.Is(tm.(loaderModel).err, errLoadCancelled) {
		t.Errorf("expected errLoadCancelled, got %v", tm.(loaderModel).err)
	}
}

func TestBoard_DetailAndOpen(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), seeded(t), testCategory, "2024-05-01")
	if err != nil {
		t.Fatal(err)
	}

	var opened string
	m := newBoardModel(snap)
	m.open = func(url string) { opened = url }

	var tm tea.Model = m
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := tm.View()
	if !strings.Contains(view, "Senior Analyst") || !strings.Contains(view, "Market Summary") {
		t.Fatalf("board view missing content:\n%s", view)
	}

	tm, _ = tm.Update(key("enter"))
	if tm.(boardModel).view != viewDetail {
		t.Fatal("enter should open the detail view")
	}
	if !strings.Contains(tm.View(), "b.example/apply") {
		t.Errorf("detail should show the apply link")
	}

	tm, _ = tm.Update(key("o"))
	if opened != "https://b.example/apply" {
		t.Errorf("opened = %q", opened)
	}

	tm, _ = tm.Update(key("esc"))
	if tm.(boardModel).view != viewBoard {
		t.Error("esc should return to the board")
	}

	_, cmd := tm.Update(key("esc"))
	if cmd == nil {
		t.Error("esc on the board should exit back to the picker")
	}
}

func TestBoard_CursorStaysInRange(t *testing.T) {
	snap := Snapshot{Category: testCategory, Postings: []model.Posting{{Title: "a"}, {Title: "b"}}}

	var tm tea.Model = newBoardModel(snap)
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	for range 5 {
		tm, _ = tm.Update(key("j"))
	}
	if c := tm.(boardModel).cursor; c != 1 {
		t.Errorf("cursor = %d, want 1", c)
	}

	// The summary pane scrolls but has no cursor.
	tm, _ = tm.Update(key("tab"))
	tm, _ = tm.Update(key("k"))
	if c := tm.(boardModel).cursor; c != 1 {
		t.Errorf("cursor moved while summary pane active: %d", c)
	}

	tm, _ = tm.Update(key("q"))
	if !tm.(boardModel).wantQuit {
		t.Error("q should quit")
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		lo, hi *int64
		want   string
	}{
		{int64Ptr(80000), int64Ptr(120000), "$80k - $120k"},
		{nil, int64Ptr(95000), "up to $95k"},
		{int64Ptr(500), nil, "from $500"},
		{nil, nil, ""},
	}
	for _, tt := range tests {
		if got := formatSalary(tt.lo, tt.hi); got != tt.want {
			t.Errorf("formatSalary = %q, want %q", got, tt.want)
		}
	}

	if got := truncate("San Francisco, California", 10); got != "San Franc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := formatMoney(950); got != "$950" {
		t.Errorf("formatMoney = %q", got)
	}
}
