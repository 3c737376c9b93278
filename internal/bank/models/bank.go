package models

import (
	"strings"
	"time"

	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// BloodBank is a physical bank location holding inventory.
type BloodBank struct {
	ID        domain.BankID `json:"id"`
	Name      string        `json:"name"`
	Address   string        `json:"address,omitempty"`
	City      string        `json:"city,omitempty"`
	State     string        `json:"state,omitempty"`
	ZipCode   string        `json:"zip_code,omitempty"`
	Phone     string        `json:"phone,omitempty"`
	Email     string        `json:"email,omitempty"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBloodBank validates and builds an active bank.
func NewBloodBank(id domain.BankID, name, address, city, state, zip, phone, email string, now time.Time) (*BloodBank, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return &BloodBank{
		ID:        id,
		Name:      name,
		Address:   address,
		City:      city,
		State:     state,
		ZipCode:   zip,
		Phone:     phone,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Filter narrows bank listings. Search matches name, city, or state as a
// case-insensitive substring.
type Filter struct {
	Search   string
	IsActive *bool
}

// Matches reports whether the bank passes the filter.
func (f Filter) Matches(b *BloodBank) bool {
	if f.IsActive != nil && b.IsActive != *f.IsActive {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Name), needle) &&
			!strings.Contains(strings.ToLower(b.City), needle) &&
			!strings.Contains(strings.ToLower(b.State), needle) {
			return false
		}
	}
	return true
}
