package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// Entry is one (blood bank, blood group) inventory counter.
//
// Invariants:
//   - (BankID, BloodGroup) is unique across the store
//   - UnitsAvailable is never negative
//   - Entries are created lazily on first credit and never deleted
//   - Only the ledger mutates UnitsAvailable; workflows go through it
type Entry struct {
	ID             uuid.UUID         `json:"id"`
	BankID         domain.BankID     `json:"blood_bank_id"`
	BloodGroup     domain.BloodGroup `json:"blood_group"`
	UnitsAvailable int               `json:"units_available"`
	UpdatedAt      time.Time         `json:"last_updated"`
}

// Filter narrows inventory listings.
type Filter struct {
	BankID     *domain.BankID
	BloodGroup *domain.BloodGroup
}

// Matches reports whether the entry passes the filter.
func (f Filter) Matches(e *Entry) bool {
	if f.BankID != nil && e.BankID != *f.BankID {
		return false
	}
	if f.BloodGroup != nil && e.BloodGroup != *f.BloodGroup {
		return false
	}
	return true
}

// InsufficientUnitsError reports a refused debit together with the counts the
// caller needs to self-correct (pick another bank, lower the amount).
type InsufficientUnitsError struct {
	Available int
	Required  int
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("insufficient blood units: available %d, required %d", e.Available, e.Required)
}

// Unwrap ties the error into the sentinel taxonomy so stores and services
// can branch with errors.Is.
func (e *InsufficientUnitsError) Unwrap() error { return sentinel.ErrInsufficientUnits }
