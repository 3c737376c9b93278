package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodlink/pkg/domain"
)

// DonorProfile holds the medical and contact details a donor maintains for
// themselves. One profile per user.
type DonorProfile struct {
	ID               uuid.UUID         `json:"id"`
	UserID           domain.UserID     `json:"user_id"`
	BloodGroup       domain.BloodGroup `json:"blood_group"`
	DateOfBirth      *time.Time        `json:"date_of_birth,omitempty"`
	Address          string            `json:"address,omitempty"`
	City             string            `json:"city,omitempty"`
	State            string            `json:"state,omitempty"`
	ZipCode          string            `json:"zip_code,omitempty"`
	IsAvailable      bool              `json:"is_available"`
	LastDonationDate *time.Time        `json:"last_donation_date,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// SearchFilter narrows the donor directory. City matches as a
// case-insensitive substring; the other fields match exactly.
type SearchFilter struct {
	BloodGroup  *domain.BloodGroup
	City        string
	IsAvailable *bool
}

// Matches reports whether the profile passes the filter.
func (f SearchFilter) Matches(p *DonorProfile) bool {
	if f.BloodGroup != nil && p.BloodGroup != *f.BloodGroup {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(p.City), strings.ToLower(f.City)) {
		return false
	}
	if f.IsAvailable != nil && p.IsAvailable != *f.IsAvailable {
		return false
	}
	return true
}
