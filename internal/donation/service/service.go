// Package service implements the donation workflow: intake with blood group
// resolution from the donor profile, and the admin approve/reject transition
// whose completion credits the inventory ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bloodlink/internal/audit"
	"bloodlink/internal/donation/models"
	invmodels "bloodlink/internal/inventory/models"
	"bloodlink/internal/platform/metrics"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Action is the admin decision on a pending donation.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction validates the raw action token from the PATCH body.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidAction, `invalid action, use "approve" or "reject"`)
}

// Store is the persistence contract for donations.
type Store interface {
	Create(ctx context.Context, d *models.Donation) error
	FindByID(ctx context.Context, id domain.DonationID) (*models.Donation, error)
	Execute(ctx context.Context, id domain.DonationID,
		validate func(ctx context.Context, d *models.Donation) error,
		mutate func(d *models.Donation)) (*models.Donation, error)
	List(ctx context.Context, filter models.Filter) ([]*models.Donation, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
}

// Ledger is the slice of the inventory ledger the workflow drives.
type Ledger interface {
	Credit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*invmodels.Entry, error)
}

// Profiles is the slice of the donor directory the workflow reads and stamps.
type Profiles interface {
	BloodGroupOf(ctx context.Context, userID domain.UserID) (domain.BloodGroup, bool, error)
	RecordDonation(ctx context.Context, userID domain.UserID, date time.Time) error
}

// Service orchestrates the donation lifecycle.
type Service struct {
	store    Store
	ledger   Ledger
	profiles Profiles
	metrics  *metrics.Metrics
	emitter  *audit.Emitter
	logger   *slog.Logger
}

// New creates the workflow service. metrics and emitter may be nil.
func New(store Store, ledger Ledger, profiles Profiles, m *metrics.Metrics, emitter *audit.Emitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, ledger: ledger, profiles: profiles, metrics: m, emitter: emitter, logger: logger}
}

// CreateInput carries the intake fields for a new donation.
type CreateInput struct {
	BloodGroup   string
	UnitsDonated int
}

// Create files a new pending donation for the authenticated actor.
//
// The blood group comes from the donor's profile when one exists; the body
// value is only consulted for donors without a profile.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Donation, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	group, ok, err := s.profiles.BloodGroupOf(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if in.BloodGroup == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "blood_group required")
		}
		group, err = domain.ParseBloodGroup(in.BloodGroup)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group")
		}
	}

	d, err := models.NewDonation(domain.NewDonationID(), actor.ID, group, in.UnitsDonated, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation")
	}
	return d, nil
}

// Get loads one donation, enforcing that donors only see their own.
func (s *Service) Get(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	actor := requestcontext.Actor(ctx)
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	if !actor.IsAdmin() && d.DonorID != actor.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
	}
	return d, nil
}

// ListInput carries the optional list filters.
type ListInput struct {
	Status     string
	BloodGroup string
}

// List returns donations newest-first. Donors are restricted to their own.
func (s *Service) List(ctx context.Context, in ListInput) ([]*models.Donation, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var filter models.Filter
	if !actor.IsAdmin() {
		donor := actor.ID
		filter.DonorID = &donor
	}
	if in.Status != "" {
		st := models.Status(in.Status)
		if !st.Valid() {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid status filter")
		}
		filter.Status = &st
	}
	if in.BloodGroup != "" {
		group, err := domain.ParseBloodGroup(in.BloodGroup)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group filter")
		}
		filter.BloodGroup = &group
	}

	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return out, nil
}

// ResolveInput carries the admin decision.
type ResolveInput struct {
	Action       Action
	BankID       *domain.BankID
	DonationDate *time.Time
	AdminNotes   string
}

// Resolve applies an admin decision to a pending donation.
//
// Approval alone marks the donation approved. Approval with a donation date
// completes it: the ledger is credited when a bank is recorded, and the
// donor's profile gets its last donation date. Completion happens at most
// once because resolution is only accepted from pending.
func (s *Service) Resolve(ctx context.Context, id domain.DonationID, in ResolveInput) (*models.Donation, error) {
	start := time.Now()
	actor := requestcontext.Actor(ctx)
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	now := requestcontext.Now(ctx)
	completing := in.Action == ActionApprove && in.DonationDate != nil

	d, err := s.store.Execute(ctx, id,
		func(txCtx context.Context, d *models.Donation) error {
			if err := d.CanResolve(); err != nil {
				return err
			}
			// A completion without a recorded bank leaves inventory alone:
			// there is no counter to credit.
			if completing && in.BankID != nil {
				if _, err := s.ledger.Credit(txCtx, *in.BankID, d.BloodGroup, d.UnitsDonated); err != nil {
					return err
				}
			}
			return nil
		},
		func(d *models.Donation) {
			switch {
			case in.Action == ActionReject:
				d.ApplyRejection(in.AdminNotes, now)
			case completing:
				d.ApplyCompletion(in.BankID, *in.DonationDate, in.AdminNotes, now)
			default:
				d.ApplyApproval(in.BankID, in.AdminNotes, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
		}
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve donation")
	}

	if d.Status == models.StatusCompleted {
		if err := s.profiles.RecordDonation(ctx, d.DonorID, *d.DonationDate); err != nil {
			s.logger.ErrorContext(ctx, "donation completed but profile stamp failed",
				"error", err,
				"donation_id", d.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	s.recordOutcome(ctx, actor, d, start)
	return d, nil
}

func (s *Service) recordOutcome(ctx context.Context, actor domain.Actor, d *models.Donation, start time.Time) {
	var action audit.Action
	switch d.Status {
	case models.StatusCompleted:
		action = audit.ActionDonationCompleted
	case models.StatusApproved:
		action = audit.ActionDonationApproved
	default:
		action = audit.ActionDonationRejected
	}
	s.emitter.Emit(ctx, audit.Event{
		Action:   action,
		ActorID:  actor.ID.String(),
		EntityID: d.ID.String(),
		Detail:   string(d.BloodGroup),
	})
	if s.metrics != nil {
		switch d.Status {
		case models.StatusCompleted:
			s.metrics.DonationsCompleted.Inc()
		case models.StatusRejected:
			s.metrics.DonationsRejected.Inc()
		}
		s.metrics.ObserveResolve(start)
	}
}
