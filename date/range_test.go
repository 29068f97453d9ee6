package date

import (
	"slices"
	"testing"
	"time"
)

func TestPoints(t *testing.T) {
	testCases := []struct {
		name       string
		in         Range
		resolution Period
		want       []string
	}{
		{
			name:       "single day",
			in:         Range{From: MustParse("2025-03-10"), To: MustParse("2025-03-10")},
			resolution: Daily,
			want:       []string{"2025-03-10"},
		},
		{
			name:       "daily",
			in:         Range{From: MustParse("2025-03-10"), To: MustParse("2025-03-13")},
			resolution: Daily,
			want:       []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13"},
		},
		{
			name:       "weekly ends on To",
			in:         Range{From: MustParse("2025-03-01"), To: MustParse("2025-03-20")},
			resolution: Weekly,
			want:       []string{"2025-03-01", "2025-03-08", "2025-03-15", "2025-03-20"},
		},
		{
			name:       "monthly does not drift on short months",
			in:         Range{From: MustParse("2024-01-31"), To: MustParse("2024-04-30")},
			resolution: Monthly,
			want:       []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"},
		},
		{
			name:       "empty when reversed",
			in:         Range{From: MustParse("2025-03-10"), To: MustParse("2025-03-09")},
			resolution: Daily,
			want:       nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for on := range tc.in.Points(tc.resolution) {
				got = append(got, on.String())
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("Points() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewRange(t *testing.T) {
	testCases := []struct {
		name   string
		in     Date
		period Period
		want   Range
	}{
		{"day", New(2025, time.September, 8), Daily, Range{From: New(2025, time.September, 8), To: New(2025, time.September, 8)}},
		{"a wednesday", New(2025, time.September, 10), Weekly, Range{From: New(2025, time.September, 8), To: New(2025, time.September, 14)}},
		{"leap february", New(2024, time.February, 15), Monthly, Range{From: New(2024, time.February, 1), To: New(2024, time.February, 29)}},
		{"Q2", New(2025, time.May, 20), Quarterly, Range{From: New(2025, time.April, 1), To: New(2025, time.June, 30)}},
		{"year", New(2025, time.September, 8), Yearly, Range{From: New(2025, time.January, 1), To: New(2025, time.December, 31)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewRange(tc.in, tc.period); got != tc.want {
				t.Errorf("NewRange() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRange_Identifier(t *testing.T) {
	testCases := []struct {
		in   Range
		want string
	}{
		{NewRange(New(2025, time.September, 8), Daily), "2025-09-08"},
		{NewRange(New(2025, time.September, 8), Weekly), "2025-W37"},
		{NewRange(New(2025, time.September, 1), Monthly), "2025-09"},
		{NewRange(New(2025, time.July, 1), Quarterly), "2025-Q3"},
		{NewRange(New(2025, time.January, 1), Yearly), "2025"},
		{Range{From: New(2025, time.September, 2), To: New(2025, time.September, 10)}, "2025-09-02_2025-09-10"},
	}
	for _, tc := range testCases {
		if got := tc.in.Identifier(); got != tc.want {
			t.Errorf("Identifier() = %q, want %q", got, tc.want)
		}
	}
}

func TestRange_Days(t *testing.T) {
	r := Range{From: MustParse("2024-01-01"), To: MustParse("2024-12-31")}
	if got := r.Days(); got != 366 {
		t.Errorf("Days() = %d, want 366", got)
	}
	if !r.Contains(MustParse("2024-02-29")) || r.Contains(MustParse("2025-01-01")) {
		t.Errorf("Contains() boundaries are wrong for %v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	testCases := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"daily", Daily, false},
		{"Week", Weekly, false},
		{"month", Monthly, false},
		{"quarterly", Quarterly, false},
		{"YEAR", Yearly, false},
		{"fortnight", Daily, true},
	}
	for _, tc := range testCases {
		got, err := ParsePeriod(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPeriod_Valid(t *testing.T) {
	for _, p := range []Period{Daily, Weekly, Monthly, Quarterly, Yearly} {
		if !p.Valid() {
			t.Errorf("%v.Valid() = false", p)
		}
	}
	for _, p := range []Period{-1, 5, 7} {
		if p.Valid() {
			t.Errorf("Period(%d).Valid() = true", int(p))
		}
	}
}
