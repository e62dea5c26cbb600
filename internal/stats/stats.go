package stats

import (
	"slices"

	"github.com/amishk599/jobfloor/internal/model"
)

// TopLocations is the number of locations kept in CategoryStats.Locations.
const TopLocations = 10

// Aggregate derives statistics from a posting list. The returned stats carry
// no category or date; callers stamp the key. Aggregate has no side effects,
// so calling it twice on the same input yields equal results.
func Aggregate(postings []model.Posting) model.CategoryStats {
	return model.CategoryStats{
		TotalJobs: len(postings),
		AvgSalary: averageSalary(postings),
		Locations: topLocations(postings, TopLocations),
	}
}

// averageSalary integer-divides the sum of known SalaryMax values by their
// count. Postings without a salary are left out of both.
func averageSalary(postings []model.Posting) int64 {
	var sum, n int64
	for _, p := range postings {
		if p.SalaryMax == nil {
			continue
		}
		sum += *p.SalaryMax
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// topLocations groups by exact location string, sorts by count descending
// keeping first-seen order on ties, and truncates to limit.
func topLocations(postings []model.Posting, limit int) []model.LocationCount {
	counts := make([]model.LocationCount, 0)
	index := make(map[string]int)
	for _, p := range postings {
		i, ok := index[p.Location]
		if !ok {
			index[p.Location] = len(counts)
			counts = append(counts, model.LocationCount{Name: p.Location, Count: 1})
			continue
		}
		counts[i].Count++
	}

	slices.SortStableFunc(counts, func(a, b model.LocationCount) int {
		return b.Count - a.Count
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// SalaryRange summarizes the known SalaryMax values of a posting list.
type SalaryRange struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Avg   int64 `json:"avg"`
	Count int   `json:"count"`
}

// Salaries returns min, max and average SalaryMax over postings that have one.
// All fields are zero when no posting carries a salary.
func Salaries(postings []model.Posting) SalaryRange {
	var r SalaryRange
	var sum int64
	for _, p := range postings {
		if p.SalaryMax == nil {
			continue
		}
		v := *p.SalaryMax
		if r.Count == 0 || v < r.Min {
			r.Min = v
		}
		if r.Count == 0 || v > r.Max {
			r.Max = v
		}
		sum += v
		r.Count++
	}
	if r.Count > 0 {
		r.Avg = sum / int64(r.Count)
	}
	return r
}
