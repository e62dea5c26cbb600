package filter

import (
	"strings"

	"github.com/amishk599/jobfloor/internal/model"
)

// LocationFilter matches postings whose location contains "City, State".
// Matching is case-insensitive. Empty city and state match everything.
type LocationFilter struct {
	needle string
}

// NewLocationFilter returns a filter for the given city and state. Either part
// may be empty, in which case only the other one is matched.
func NewLocationFilter(city, state string) *LocationFilter {
	city = strings.TrimSpace(city)
	state = strings.TrimSpace(state)

	var needle string
	switch {
	case city != "" && state != "":
		needle = city + ", " + state
	case city != "":
		needle = city
	default:
		needle = state
	}
	return &LocationFilter{needle: strings.ToLower(needle)}
}

// Match returns true if the posting's location contains the filter's needle.
func (f *LocationFilter) Match(p model.Posting) bool {
	if f.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Location), f.needle)
}

// Apply returns the postings that match, preserving order. The result is
// never nil.
func (f *LocationFilter) Apply(postings []model.Posting) []model.Posting {
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
