package domain

import "time"

// ParseDate parses a calendar date in YYYY-MM-DD form, as used for dates of
// birth and donation dates.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
