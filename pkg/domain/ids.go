// Package domain defines the typed identifiers shared across modules.
//
// Each ID is a distinct type over uuid.UUID so a bank ID can never be passed
// where a donation ID is expected. Stores and handlers parse raw strings at
// the boundary; services only ever see typed IDs.
package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

type (
	// UserID identifies a user account (admin or donor).
	UserID uuid.UUID
	// BankID identifies a blood bank location.
	BankID uuid.UUID
	// RequestID identifies a blood request.
	RequestID uuid.UUID
	// DonationID identifies a donation record.
	DonationID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id BankID) String() string     { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id BankID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep JSON payloads as plain UUID strings.
func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id BankID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id RequestID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DonationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	*id = UserID(u)
	return nil
}

func (id *BankID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return fmt.Errorf("invalid bank id: %w", err)
	}
	*id = BankID(u)
	return nil
}

func (id *RequestID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	*id = RequestID(u)
	return nil
}

func (id *DonationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return fmt.Errorf("invalid donation id: %w", err)
	}
	*id = DonationID(u)
	return nil
}

// Value/Scan implementations let stores bind and read IDs directly.
func (id UserID) Value() (driver.Value, error)     { return uuid.UUID(id).Value() }
func (id BankID) Value() (driver.Value, error)     { return uuid.UUID(id).Value() }
func (id RequestID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id DonationID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

func (id *UserID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan user id: %w", err)
	}
	*id = UserID(u)
	return nil
}

func (id *BankID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan bank id: %w", err)
	}
	*id = BankID(u)
	return nil
}

func (id *RequestID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan request id: %w", err)
	}
	*id = RequestID(u)
	return nil
}

func (id *DonationID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan donation id: %w", err)
	}
	*id = DonationID(u)
	return nil
}

// NewUserID mints a random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewBankID mints a random bank ID.
func NewBankID() BankID { return BankID(uuid.New()) }

// NewRequestID mints a random request ID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewDonationID mints a random donation ID.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// ParseUserID parses a UUID string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(u), nil
}

// ParseBankID parses a UUID string into a BankID.
func ParseBankID(s string) (BankID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return BankID{}, fmt.Errorf("invalid bank id %q: %w", s, err)
	}
	return BankID(u), nil
}

// ParseRequestID parses a UUID string into a RequestID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, fmt.Errorf("invalid request id %q: %w", s, err)
	}
	return RequestID(u), nil
}

// ParseDonationID parses a UUID string into a DonationID.
func ParseDonationID(s string) (DonationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return DonationID{}, fmt.Errorf("invalid donation id %q: %w", s, err)
	}
	return DonationID(u), nil
}
