// Package service implements account registration and login.
//
// Registration always creates donor accounts; admins are seeded at startup.
// Passwords are bcrypt-hashed, never stored or logged in plaintext.
package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"bloodlink/internal/auth/lockout"
	"bloodlink/internal/auth/models"
	donorservice "bloodlink/internal/donor/service"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

const minPasswordLength = 8

// Store is the persistence contract for users.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Lookup(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*models.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID domain.UserID, role domain.Role) (string, error)
}

// Service exposes register, login, and identity lookup.
type Service struct {
	store    Store
	tokens   TokenIssuer
	profiles *donorservice.Service
	lockouts *lockout.Guard
}

// New creates the auth service. profiles may be nil when profile creation at
// registration is not wired.
func New(store Store, tokens TokenIssuer, profiles *donorservice.Service) *Service {
	return &Service{store: store, tokens: tokens, profiles: profiles}
}

// AttachProfiles wires the donor directory after construction. The directory
// needs this service for account lookups, so one side attaches late.
func (s *Service) AttachProfiles(profiles *donorservice.Service) {
	s.profiles = profiles
}

// AttachLockout enables failed-login throttling. A nil guard disables it.
func (s *Service) AttachLockout(guard *lockout.Guard) {
	s.lockouts = guard
}

// RegisterInput carries the signup fields. BloodGroup is optional; when set
// a donor profile is created alongside the account.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Phone      string
	BloodGroup string
	City       string
}

// AuthResult is a signed token with the account it identifies.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a donor account and returns a signed token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if len(in.Password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	u, err := models.NewUser(domain.NewUserID(), in.Username, in.Email, domain.RoleDonor, in.Phone, string(hash), now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if in.BloodGroup != "" && s.profiles != nil {
		profileCtx := requestcontext.WithActor(ctx, domain.Actor{ID: u.ID, Role: u.Role})
		if _, err := s.profiles.Upsert(profileCtx, donorservice.UpsertInput{
			BloodGroup:  in.BloodGroup,
			City:        in.City,
			IsAvailable: true,
		}); err != nil {
			return nil, err
		}
	}

	return s.issue(u)
}

// LoginInput carries the credentials.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns a signed token. Wrong username and
// wrong password are indistinguishable to the caller; repeated failures lock
// the account for a while.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := s.lockouts.Allow(ctx, in.Username); err != nil {
		return nil, err
	}

	u, err := s.store.FindByUsername(ctx, in.Username)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.lockouts.RecordFailure(ctx, in.Username)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.IsActive {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		s.lockouts.RecordFailure(ctx, in.Username)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	s.lockouts.Clear(ctx, in.Username)
	return s.issue(u)
}

func (s *Service) issue(u *models.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Me returns the account of the authenticated actor.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	u, err := s.store.FindByID(ctx, actor.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return u, nil
}

// ActiveDonors implements the donor directory's user lookup: only active
// donor-role accounts appear in search results.
func (s *Service) ActiveDonors(ctx context.Context, ids []domain.UserID) (map[domain.UserID]donorservice.UserContact, error) {
	users, err := s.store.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.UserID]donorservice.UserContact, len(users))
	for id, u := range users {
		if u.Role != domain.RoleDonor || !u.IsActive {
			continue
		}
		out[id] = donorservice.UserContact{Username: u.Username, Email: u.Email, Phone: u.Phone}
	}
	return out, nil
}

// TotalDonors counts active donor accounts, for the admin dashboard.
func (s *Service) TotalDonors(ctx context.Context) (int, error) {
	return s.store.CountByRole(ctx, domain.RoleDonor)
}

// SeedAdmin ensures an admin account exists with the given credentials.
// Called at startup; a conflict means the admin is already there.
func (s *Service) SeedAdmin(ctx context.Context, username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u, err := models.NewUser(domain.NewUserID(), username, email, domain.RoleAdmin, "", string(hash), requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.store.Create(ctx, u); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed admin")
	}
	return nil
}
