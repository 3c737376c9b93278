package domain

import "fmt"

// Urgency ranks a blood request. It is informational only: approvals are
// admin-driven and no scheduling decision keys off it.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// Valid reports whether the urgency is a defined level.
func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Less orders urgencies low < medium < high < critical.
func (u Urgency) Less(other Urgency) bool {
	return urgencyRank[u] < urgencyRank[other]
}

// ParseUrgency validates a raw string, defaulting empty input to medium the
// way the original intake form did.
func ParseUrgency(s string) (Urgency, error) {
	if s == "" {
		return UrgencyMedium, nil
	}
	u := Urgency(s)
	if !u.Valid() {
		return "", fmt.Errorf("invalid urgency %q", s)
	}
	return u, nil
}
