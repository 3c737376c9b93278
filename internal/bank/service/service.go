// Package service implements blood bank management. Admin-only CRUD with a
// substring search; no workflow logic lives here.
package service

import (
	"context"
	"errors"

	"bloodlink/internal/bank/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Store is the persistence contract for blood banks.
type Store interface {
	Create(ctx context.Context, b *models.BloodBank) error
	FindByID(ctx context.Context, id domain.BankID) (*models.BloodBank, error)
	Update(ctx context.Context, b *models.BloodBank) error
	Delete(ctx context.Context, id domain.BankID) error
	List(ctx context.Context, filter models.Filter) ([]*models.BloodBank, error)
}

// Service exposes blood bank management.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Input carries the writable bank fields.
type Input struct {
	Name     string
	Address  string
	City     string
	State    string
	ZipCode  string
	Phone    string
	Email    string
	IsActive *bool
}

func requireAdmin(ctx context.Context) error {
	if !requestcontext.Actor(ctx).IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return nil
}

// Create registers a new bank.
func (s *Service) Create(ctx context.Context, in Input) (*models.BloodBank, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	b, err := models.NewBloodBank(domain.NewBankID(), in.Name, in.Address, in.City,
		in.State, in.ZipCode, in.Phone, in.Email, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood bank")
	}
	return b, nil
}

// Get loads one bank.
func (s *Service) Get(ctx context.Context, id domain.BankID) (*models.BloodBank, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	b, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "blood bank not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood bank")
	}
	return b, nil
}

// Update replaces the writable fields of a bank.
func (s *Service) Update(ctx context.Context, id domain.BankID, in Input) (*models.BloodBank, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	b.Name = in.Name
	b.Address = in.Address
	b.City = in.City
	b.State = in.State
	b.ZipCode = in.ZipCode
	b.Phone = in.Phone
	b.Email = in.Email
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	b.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, b); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood bank not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update blood bank")
	}
	return b, nil
}

// Delete removes a bank. Inventory rows referencing it cascade at the
// database layer.
func (s *Service) Delete(ctx context.Context, id domain.BankID) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "blood bank not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete blood bank")
	}
	return nil
}

// ListInput carries the optional list filters.
type ListInput struct {
	Search   string
	IsActive *bool
}

// List returns banks matching the filter, ordered by name.
func (s *Service) List(ctx context.Context, in ListInput) ([]*models.BloodBank, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	out, err := s.store.List(ctx, models.Filter{Search: in.Search, IsActive: in.IsActive})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood banks")
	}
	return out, nil
}
