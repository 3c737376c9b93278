package models

import (
	"time"

	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// Donation is a donor-side offer of units of one blood group.
//
// Invariants:
//   - UnitsDonated is positive
//   - Status leaves pending exactly once
//   - DonationDate is set by the completion transition only; a completed
//     donation always has one
//   - Inventory is credited at most once, by the completion that recorded
//     the bank
type Donation struct {
	ID           domain.DonationID `json:"id"`
	DonorID      domain.UserID     `json:"donor_id"`
	BloodGroup   domain.BloodGroup `json:"blood_group"`
	UnitsDonated int               `json:"units_donated"`
	Status       Status            `json:"status"`
	BankID       *domain.BankID    `json:"blood_bank_id,omitempty"`
	DonationDate *time.Time        `json:"donation_date,omitempty"`
	AdminNotes   string            `json:"admin_notes,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewDonation validates intake fields and builds a pending donation.
func NewDonation(id domain.DonationID, donor domain.UserID, group domain.BloodGroup, units int, now time.Time) (*Donation, error) {
	if !group.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}
	if units <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "units_donated must be positive")
	}
	return &Donation{
		ID:           id,
		DonorID:      donor,
		BloodGroup:   group,
		UnitsDonated: units,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanResolve checks that the approve/reject transition is still open.
// Resolution is only accepted from pending; anything else reports a conflict
// so a donation can never be completed, and credited, twice.
func (d *Donation) CanResolve() error {
	if d.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict, "donation already %s", d.Status)
	}
	return nil
}

// ApplyApproval moves the donation to approved without completing it.
func (d *Donation) ApplyApproval(bank *domain.BankID, notes string, now time.Time) {
	d.Status = StatusApproved
	d.setResolution(bank, notes, now)
}

// ApplyCompletion moves the donation to completed with its donation date.
func (d *Donation) ApplyCompletion(bank *domain.BankID, date time.Time, notes string, now time.Time) {
	d.Status = StatusCompleted
	t := date
	d.DonationDate = &t
	d.setResolution(bank, notes, now)
}

// ApplyRejection moves the donation to rejected.
func (d *Donation) ApplyRejection(notes string, now time.Time) {
	d.Status = StatusRejected
	d.setResolution(nil, notes, now)
}

func (d *Donation) setResolution(bank *domain.BankID, notes string, now time.Time) {
	if bank != nil {
		b := *bank
		d.BankID = &b
	}
	if notes != "" {
		d.AdminNotes = notes
	}
	d.UpdatedAt = now
}

// Filter narrows donation listings and counts.
type Filter struct {
	DonorID    *domain.UserID
	Status     *Status
	BloodGroup *domain.BloodGroup
	// Limit caps the result count after ordering by CreatedAt descending.
	// Zero means no limit.
	Limit int
}

// Matches reports whether the donation passes the filter (Limit excluded).
func (f Filter) Matches(d *Donation) bool {
	if f.DonorID != nil && d.DonorID != *f.DonorID {
		return false
	}
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.BloodGroup != nil && d.BloodGroup != *f.BloodGroup {
		return false
	}
	return true
}
