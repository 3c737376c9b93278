package models

import (
	"net/mail"
	"strings"
	"time"

	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// User is an account that can authenticate. Admins run the approval
// workflows; donors file requests and donations.
type User struct {
	ID           domain.UserID `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email"`
	Role         domain.Role   `json:"role"`
	Phone        string        `json:"phone,omitempty"`
	PasswordHash string        `json:"-"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewUser validates account fields and builds an active user. The caller
// hashes the password; this layer never sees plaintext.
func NewUser(id domain.UserID, username, email string, role domain.Role, phone, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if !role.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return &User{
		ID:           id,
		Username:     username,
		Email:        email,
		Role:         role,
		Phone:        phone,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
