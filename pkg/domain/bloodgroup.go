package domain

import (
	"fmt"
)

// BloodGroup is the closed set of ABO/Rh blood groups the system tracks.
type BloodGroup string

const (
	APositive  BloodGroup = "A+"
	ANegative  BloodGroup = "A-"
	BPositive  BloodGroup = "B+"
	BNegative  BloodGroup = "B-"
	ABPositive BloodGroup = "AB+"
	ABNegative BloodGroup = "AB-"
	OPositive  BloodGroup = "O+"
	ONegative  BloodGroup = "O-"
)

// BloodGroups lists every valid group in display order. Dashboards iterate
// this slice so availability maps always contain all eight keys.
var BloodGroups = []BloodGroup{
	APositive, ANegative,
	BPositive, BNegative,
	ABPositive, ABNegative,
	OPositive, ONegative,
}

// Valid reports whether the group is one of the eight defined values.
func (g BloodGroup) Valid() bool {
	switch g {
	case APositive, ANegative, BPositive, BNegative,
		ABPositive, ABNegative, OPositive, ONegative:
		return true
	}
	return false
}

// ParseBloodGroup validates a raw string into a BloodGroup.
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(s)
	if !g.Valid() {
		return "", fmt.Errorf("invalid blood group %q", s)
	}
	return g, nil
}
