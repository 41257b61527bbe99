// Package fiscal implements the Indian financial year (1 April to 31 March)
// used to scope documents and applications.
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Year is identified by the calendar year in which it starts: Year(2024) is FY 2024-25.
type Year int

// Parse reads the "YYYY-YY" form, e.g. "2024-25". The suffix must be the
// two-digit year following the start year.
func Parse(s string) (Year, error) {
	s = strings.TrimSpace(s)
	start, end, ok := strings.Cut(s, "-")
	if !ok || len(start) != 4 || len(end) != 2 {
		return 0, fmt.Errorf("financial year %q must look like 2024-25", s)
	}
	y, err := strconv.Atoi(start)
	if err != nil || y < 1900 {
		return 0, fmt.Errorf("financial year %q has an invalid start year", s)
	}
	suffix, err := strconv.Atoi(end)
	if err != nil || suffix != (y+1)%100 {
		return 0, fmt.Errorf("financial year %q must end with the following year", s)
	}
	return Year(y), nil
}

// Current returns the financial year containing t, evaluated in t's location.
func Current(t time.Time) Year {
	if t.Month() >= time.April {
		return Year(t.Year())
	}
	return Year(t.Year() - 1)
}

// Recent returns n years starting with the one containing t, newest first.
func Recent(t time.Time, n int) []Year {
	cur := Current(t)
	out := make([]Year, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, cur-Year(i))
	}
	return out
}

func (y Year) String() string {
	return fmt.Sprintf("%d-%02d", int(y), (int(y)+1)%100)
}

func (y Year) Previous() Year { return y - 1 }

// Start is 1 April of the starting year.
func (y Year) Start(loc *time.Location) time.Time {
	return time.Date(int(y), time.April, 1, 0, 0, 0, 0, loc)
}

// End is the last instant of 31 March of the following year.
func (y Year) End(loc *time.Location) time.Time {
	return y.Start(loc).AddDate(1, 0, 0).Add(-time.Nanosecond)
}

func (y Year) Contains(t time.Time) bool {
	return Current(t) == y
}

// FilingDeadline is the default income tax return due date for the year: 31 July after it ends.
func (y Year) FilingDeadline(loc *time.Location) time.Time {
	return time.Date(int(y)+1, time.July, 31, 23, 59, 59, 0, loc)
}

// ParseOrCurrent returns the current year for an empty string.
func ParseOrCurrent(s string, now time.Time) (Year, error) {
	if strings.TrimSpace(s) == "" {
		return Current(now), nil
	}
	return Parse(s)
}
