package adapter

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobfloor/internal/model"
)

// SyntheticSourceName tags every posting the synthetic source produces.
const SyntheticSourceName = "synthetic"

// Ensure SyntheticSource implements model.JobSource.
var _ model.JobSource = (*SyntheticSource)(nil)

type syntheticCity struct {
	name     string
	lat, lon float64
}

var syntheticCities = []syntheticCity{
	{"New York, NY", 40.7128, -74.0060},
	{"San Francisco, CA", 37.7749, -122.4194},
	{"Chicago, IL", 41.8781, -87.6298},
	{"Austin, TX", 30.2672, -97.7431},
	{"Seattle, WA", 47.6062, -122.3321},
	{"Boston, MA", 42.3601, -71.0589},
	{"Denver, CO", 39.7392, -104.9903},
	{"Atlanta, GA", 33.7490, -84.3880},
}

var syntheticCompanies = []string{
	"Google", "Amazon", "Microsoft", "Meta", "Apple", "Netflix", "Tesla",
	"Salesforce", "Adobe", "IBM", "Oracle", "Intel", "Cisco",
}

var syntheticEmploymentTypes = []string{"FULLTIME", "CONTRACTOR", "PARTTIME"}

// SyntheticSource generates structurally valid postings without calling any
// provider. Values are random; only the shape is fixed. It is safe for
// concurrent use.
type SyntheticSource struct {
	mu       sync.Mutex
	rng      *rand.Rand
	minCount int
	maxCount int
	fixed    map[string]int
	now      func() time.Time
}

// SyntheticOption configures a SyntheticSource.
type SyntheticOption func(*SyntheticSource)

// WithSeed makes the generated values reproducible.
func WithSeed(seed uint64) SyntheticOption {
	return func(s *SyntheticSource) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithFixedCount pins the number of postings returned for query text.
func WithFixedCount(query string, n int) SyntheticOption {
	return func(s *SyntheticSource) {
		s.fixed[query] = n
	}
}

// NewSyntheticSource returns a source producing 5–15 postings per fetch.
func NewSyntheticSource(opts ...SyntheticOption) *SyntheticSource {
	s := &SyntheticSource{
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		minCount: 5,
		maxCount: 15,
		fixed:    make(map[string]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyntheticSource) Name() string { return SyntheticSourceName }

// SetCount pins the number of postings returned for query text from now on.
func (s *SyntheticSource) SetCount(query string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[query] = n
}

// Fetch returns generated postings for q. It never fails.
func (s *SyntheticSource) Fetch(_ context.Context, q model.Query) ([]model.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.fixed[q.Text]
	if !ok {
		n = s.minCount + s.rng.IntN(s.maxCount-s.minCount+1)
	}

	posted := s.now().UTC().Format(time.RFC3339)
	postings := make([]model.Posting, 0, n)
	for i := 0; i < n; i++ {
		city := syntheticCities[s.rng.IntN(len(syntheticCities))]
		lat, lon := city.lat, city.lon
		salaryMin := int64(60000 + s.rng.IntN(40001))
		salaryMax := int64(100000 + s.rng.IntN(80001))

		postings = append(postings, model.Posting{
			ID:             "synthetic-" + uuid.NewString(),
			Title:          q.Text,
			Company:        syntheticCompanies[s.rng.IntN(len(syntheticCompanies))],
			Location:       city.name,
			Latitude:       &lat,
			Longitude:      &lon,
			SalaryMin:      &salaryMin,
			SalaryMax:      &salaryMax,
			EmploymentType: syntheticEmploymentTypes[s.rng.IntN(len(syntheticEmploymentTypes))],
			PostedDate:     posted,
			ApplyLink:      fmt.Sprintf("https://example.com/apply/%d", i),
			Description:    fmt.Sprintf("We are seeking a talented %s to join our team...", q.Text),
			Source:         SyntheticSourceName,
		})
	}
	return postings, nil
}
