package adapter

import (
	"html"
	"math"
	"regexp"
	"strings"
)

// maxDescriptionLen bounds the stored description, in runes.
const maxDescriptionLen = 500

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// extractText converts an HTML or HTML-encoded string to plain text.
// It unescapes entities, strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// cleanDescription returns plain text truncated to maxDescriptionLen runes.
func cleanDescription(content string) string {
	text := extractText(content)
	runes := []rune(text)
	if len(runes) <= maxDescriptionLen {
		return text
	}
	return string(runes[:maxDescriptionLen])
}

// joinLocation builds "City, State", skipping empty parts. When neither is
// known the fallback (usually a country) is used.
func joinLocation(city, state, fallback string) string {
	var parts []string
	for _, p := range []string{city, state} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(fallback)
	}
	return strings.Join(parts, ", ")
}

// roundSalary converts a provider salary to whole currency units. nil stays nil.
func roundSalary(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}

// positiveSalary is roundSalary for providers that report unknown as zero.
func positiveSalary(v *float64) *int64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return roundSalary(v)
}
