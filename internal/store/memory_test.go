package store

import (
	"context"
	"testing"

	"github.com/amishk599/jobfloor/internal/model"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) model.Store { return NewMemoryStore() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.PutPostings(ctx, "Nurse", "2024-05-01", samplePostings(1, "n")); err != nil {
		t.Fatalf("PutPostings: %v", err)
	}

	got, _, _ := s.GetPostings(ctx, "Nurse", "2024-05-01")
	got[0].Title = "mutated"

	again, _, _ := s.GetPostings(ctx, "Nurse", "2024-05-01")
	if again[0].Title == "mutated" {
		t.Error("expected GetPostings to return a copy")
	}
}

func TestMemoryStoreCategories(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, c := range []string{"nurse", "Data Scientist", "Accountant"} {
		if err := s.PutStats(ctx, model.CategoryStats{Category: c, Date: "2024-05-01"}); err != nil {
			t.Fatalf("PutStats: %v", err)
		}
	}

	got := s.Categories()
	want := []string{"Accountant", "Data Scientist", "nurse"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
