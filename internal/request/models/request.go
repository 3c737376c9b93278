package models

import (
	"time"

	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// BloodRequest is a patient-side ask for units of one blood group.
//
// Invariants:
//   - UnitsRequired is positive
//   - Status only moves along the transitions defined in status.go;
//     in particular a request leaves pending exactly once
//   - BankID is set at most once, by the approval that debits it
//   - Once terminal, only AdminNotes may still be amended
type BloodRequest struct {
	ID            domain.RequestID  `json:"id"`
	RequesterID   domain.UserID     `json:"requester_id"`
	BloodGroup    domain.BloodGroup `json:"blood_group"`
	UnitsRequired int               `json:"units_required"`
	Reason        string            `json:"reason"`
	Urgency       domain.Urgency    `json:"urgency"`
	Status        Status            `json:"status"`
	BankID        *domain.BankID    `json:"blood_bank_id,omitempty"`
	AdminNotes    string            `json:"admin_notes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewBloodRequest validates intake fields and builds a pending request.
func NewBloodRequest(id domain.RequestID, requester domain.UserID, group domain.BloodGroup, units int, reason string, urgency domain.Urgency, now time.Time) (*BloodRequest, error) {
	if !group.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}
	if units <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "units_required must be positive")
	}
	if !urgency.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid urgency")
	}
	return &BloodRequest{
		ID:            id,
		RequesterID:   requester,
		BloodGroup:    group,
		UnitsRequired: units,
		Reason:        reason,
		Urgency:       urgency,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanResolve checks that the approve/reject transition is still open.
// Resolution is only accepted from pending; a second resolve attempt on the
// same request reports a conflict instead of double-debiting inventory.
func (r *BloodRequest) CanResolve() error {
	if r.Status != StatusPending {
		return dErrors.Newf(dErrors.CodeConflict, "request already %s", r.Status)
	}
	return nil
}

// ApplyApproval moves the request to approved, recording the bank when the
// approval debited one.
func (r *BloodRequest) ApplyApproval(bank *domain.BankID, notes string, now time.Time) {
	r.Status = StatusApproved
	if bank != nil {
		b := *bank
		r.BankID = &b
	}
	if notes != "" {
		r.AdminNotes = notes
	}
	r.UpdatedAt = now
}

// ApplyRejection moves the request to rejected.
func (r *BloodRequest) ApplyRejection(notes string, now time.Time) {
	r.Status = StatusRejected
	if notes != "" {
		r.AdminNotes = notes
	}
	r.UpdatedAt = now
}

// Filter narrows request listings and counts.
type Filter struct {
	RequesterID *domain.UserID
	Status      *Status
	BloodGroup  *domain.BloodGroup
	// Limit caps the result count after ordering by CreatedAt descending.
	// Zero means no limit.
	Limit int
}

// Matches reports whether the request passes the filter (Limit excluded).
func (f Filter) Matches(r *BloodRequest) bool {
	if f.RequesterID != nil && r.RequesterID != *f.RequesterID {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.BloodGroup != nil && r.BloodGroup != *f.BloodGroup {
		return false
	}
	return true
}
