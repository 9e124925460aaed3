package schedule

import (
	"testing"
	"time"
)

func TestPeriodBounds(t *testing.T) {
	cases := []struct {
		month time.Month
		year  int
		start string
		end   string
	}{
		{time.January, 2026, "2026-01-01", "2026-02-01"},
		{time.February, 2026, "2026-02-01", "2026-03-01"},
		{time.December, 2026, "2026-12-01", "2027-01-01"},
		{time.February, 2024, "2024-02-01", "2024-03-01"}, // leap year
	}
	for _, tc := range cases {
		start, end := periodBounds(tc.month, tc.year)
		if got := start.Format("2006-01-02"); got != tc.start {
			t.Fatalf("%s %d: start %s, want %s", tc.month, tc.year, got, tc.start)
		}
		if got := end.Format("2006-01-02"); got != tc.end {
			t.Fatalf("%s %d: end %s, want %s", tc.month, tc.year, got, tc.end)
		}
	}
}
