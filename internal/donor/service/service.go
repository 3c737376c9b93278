// Package service implements the donor directory: the searchable view over
// donor profiles and the profile self-service operations.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/donor/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Store is the persistence contract for donor profiles.
type Store interface {
	Upsert(ctx context.Context, p *models.DonorProfile) error
	FindByUser(ctx context.Context, userID domain.UserID) (*models.DonorProfile, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]*models.DonorProfile, error)
	SetLastDonationDate(ctx context.Context, userID domain.UserID, date time.Time) error
}

// UserContact is the slice of account data the directory exposes per match.
type UserContact struct {
	Username string
	Email    string
	Phone    string
}

// UserDirectory resolves which of the given users are active donor accounts,
// returning contact details for those that are. Users missing from the result
// are excluded from search output.
type UserDirectory interface {
	ActiveDonors(ctx context.Context, ids []domain.UserID) (map[domain.UserID]UserContact, error)
}

// Service exposes donor search and profile self-service.
type Service struct {
	store Store
	users UserDirectory
}

func New(store Store, users UserDirectory) *Service {
	return &Service{store: store, users: users}
}

// Profile returns the authenticated donor's own profile.
func (s *Service) Profile(ctx context.Context) (*models.DonorProfile, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := s.store.FindByUser(ctx, actor.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "donor profile not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor profile")
	}
	return p, nil
}

// BloodGroupOf returns the blood group recorded on a user's profile, or
// ok=false when the user has no profile.
func (s *Service) BloodGroupOf(ctx context.Context, userID domain.UserID) (domain.BloodGroup, bool, error) {
	p, err := s.store.FindByUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor profile")
	}
	return p.BloodGroup, true, nil
}

// RecordDonation stamps the donor's last donation date after a completed
// donation. A donor without a profile is a no-op: the donation itself is the
// record of truth.
func (s *Service) RecordDonation(ctx context.Context, userID domain.UserID, date time.Time) error {
	err := s.store.SetLastDonationDate(ctx, userID, date)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record donation date")
	}
	return nil
}

// UpsertInput carries the profile fields a donor maintains.
type UpsertInput struct {
	BloodGroup  string
	DateOfBirth string // YYYY-MM-DD, optional
	Address     string
	City        string
	State       string
	ZipCode     string
	IsAvailable bool
}

// Upsert creates or updates the authenticated donor's profile. The last
// donation date is workflow-owned and never writable here.
func (s *Service) Upsert(ctx context.Context, in UpsertInput) (*models.DonorProfile, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	group, err := domain.ParseBloodGroup(in.BloodGroup)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}

	now := requestcontext.Now(ctx)
	p := &models.DonorProfile{
		ID:          uuid.New(),
		UserID:      actor.ID,
		BloodGroup:  group,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		ZipCode:     in.ZipCode,
		IsAvailable: in.IsAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DateOfBirth != "" {
		dob, err := domain.ParseDate(in.DateOfBirth)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
		}
		p.DateOfBirth = &dob
	}

	// Preserve identity and workflow-owned fields across updates.
	if existing, err := s.store.FindByUser(ctx, actor.ID); err == nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.LastDonationDate = existing.LastDonationDate
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donor profile")
	}

	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donor profile")
	}
	return p, nil
}

// SearchInput carries the raw query parameters of a directory search.
type SearchInput struct {
	BloodGroup  string
	City        string
	IsAvailable *bool
}

// Match is one directory hit: the profile enriched with account contact data.
type Match struct {
	models.DonorProfile
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// Search returns profiles of active donor accounts matching the filter.
func (s *Service) Search(ctx context.Context, in SearchInput) ([]Match, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var filter models.SearchFilter
	if in.BloodGroup != "" {
		group, err := domain.ParseBloodGroup(in.BloodGroup)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group filter")
		}
		filter.BloodGroup = &group
	}
	filter.City = in.City
	filter.IsAvailable = in.IsAvailable

	profiles, err := s.store.Search(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search donors")
	}
	if len(profiles) == 0 {
		return []Match{}, nil
	}

	ids := make([]domain.UserID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	contacts, err := s.users.ActiveDonors(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve donor accounts")
	}

	matches := make([]Match, 0, len(profiles))
	for _, p := range profiles {
		contact, ok := contacts[p.UserID]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			DonorProfile: *p,
			Username:     contact.Username,
			Email:        contact.Email,
			Phone:        contact.Phone,
		})
	}
	return matches, nil
}
