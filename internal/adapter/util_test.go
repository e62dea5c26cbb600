package adapter

import "testing"

func TestJoinLocation(t *testing.T) {
	tests := []struct {
		city, state, fallback string
		want                  string
	}{
		{"New York", "NY", "US", "New York, NY"},
		{"", "NY", "US", "NY"},
		{"Austin", "", "US", "Austin"},
		{"", "", "US", "US"},
		{" ", "", "", ""},
	}
	for _, tt := range tests {
		if got := joinLocation(tt.city, tt.state, tt.fallback); got != tt.want {
			t.Errorf("joinLocation(%q, %q, %q) = %q, want %q", tt.city, tt.state, tt.fallback, got, tt.want)
		}
	}
}

func TestPositiveSalary(t *testing.T) {
	zero, neg, v := 0.0, -5.0, 1234.6
	if positiveSalary(&zero) != nil || positiveSalary(&neg) != nil || positiveSalary(nil) != nil {
		t.Error("expected nil for non-positive or missing salary")
	}
	if got := positiveSalary(&v); got == nil || *got != 1235 {
		t.Errorf("positiveSalary(1234.6) = %v, want 1235", got)
	}
}
