// Package service implements the blood request workflow: intake, listing
// with ownership rules, and the admin-driven approve/reject transition that
// debits the inventory ledger.
package service

import (
	"context"
	"errors"
	"time"

	"bloodlink/internal/audit"
	invmodels "bloodlink/internal/inventory/models"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/request/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

// Action is the admin decision on a pending request.
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

// Store is the persistence contract for blood requests.
type Store interface {
	Create(ctx context.Context, r *models.BloodRequest) error
	FindByID(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error)
	Execute(ctx context.Context, id domain.RequestID,
		validate func(ctx context.Context, r *models.BloodRequest) error,
		mutate func(r *models.BloodRequest)) (*models.BloodRequest, error)
	List(ctx context.Context, filter models.Filter) ([]*models.BloodRequest, error)
	Count(ctx context.Context, filter models.Filter) (int, error)
}

// Ledger is the slice of the inventory ledger the workflow drives.
type Ledger interface {
	Debit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*invmodels.Entry, error)
}

// Service orchestrates the blood request lifecycle.
type Service struct {
	store   Store
	ledger  Ledger
	metrics *metrics.Metrics
	emitter *audit.Emitter
}

// New creates the workflow service. metrics and emitter may be nil.
func New(store Store, ledger Ledger, m *metrics.Metrics, emitter *audit.Emitter) *Service {
	return &Service{store: store, ledger: ledger, metrics: m, emitter: emitter}
}

// CreateInput carries the intake fields for a new request.
type CreateInput struct {
	BloodGroup string
	Units      int
	Reason     string
	Urgency    string
}

// Create files a new pending request for the authenticated actor.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.BloodRequest, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	group, err := domain.ParseBloodGroup(in.BloodGroup)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid blood group")
	}
	urgency, err := domain.ParseUrgency(in.Urgency)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid urgency")
	}

	r, err := models.NewBloodRequest(domain.NewRequestID(), actor.ID, group, in.Units, in.Reason, urgency, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create blood request")
	}
	return r, nil
}

// Get loads one request, enforcing that donors only see their own.
func (s *Service) Get(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	actor := requestcontext.Actor(ctx)
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load blood request")
	}
	if !actor.IsAdmin() && r.RequesterID != actor.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
	}
	return r, nil
}

// ListInput carries the optional list filters.
type ListInput struct {
	Status     string
	BloodGroup string
}

// List returns requests newest-first. Donors are restricted to their own.
func (s *Service) List(ctx context.Context, in ListInput) ([]*models.BloodRequest, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	var filter models.Filter
	if !actor.IsAdmin() {
		requester := actor.ID
		filter.RequesterID = &requester
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
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list blood requests")
	}
	return out, nil
}

// ResolveInput carries the admin decision.
type ResolveInput struct {
	Action     Action
	BankID     *domain.BankID
	AdminNotes string
}

// Resolve applies an admin approve/reject decision to a pending request.
//
// Approval with a bank debits the ledger inside the same guarded execution;
// an insufficient balance aborts the whole transition, leaving the request
// pending and inventory untouched, with the available/required counts on
// the returned error.
func (s *Service) Resolve(ctx context.Context, id domain.RequestID, in ResolveInput) (*models.BloodRequest, error) {
	start := time.Now()
	actor := requestcontext.Actor(ctx)
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	now := requestcontext.Now(ctx)
	r, err := s.store.Execute(ctx, id,
		func(txCtx context.Context, r *models.BloodRequest) error {
			if err := r.CanResolve(); err != nil {
				return err
			}
			if in.Action == ActionApprove && in.BankID != nil {
				if _, err := s.ledger.Debit(txCtx, *in.BankID, r.BloodGroup, r.UnitsRequired); err != nil {
					return err
				}
			}
			return nil
		},
		func(r *models.BloodRequest) {
			switch in.Action {
			case ActionApprove:
				r.ApplyApproval(in.BankID, in.AdminNotes, now)
			case ActionReject:
				r.ApplyRejection(in.AdminNotes, now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "blood request not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInsufficientUnits) {
			s.incInsufficientUnits()
		}
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve blood request")
	}

	s.recordOutcome(ctx, actor, r, start)
	return r, nil
}

func (s *Service) incInsufficientUnits() {
	if s.metrics != nil {
		s.metrics.InsufficientUnits.Inc()
	}
}

func (s *Service) recordOutcome(ctx context.Context, actor domain.Actor, r *models.BloodRequest, start time.Time) {
	action := audit.ActionRequestRejected
	if r.Status == models.StatusApproved {
		action = audit.ActionRequestApproved
	}
	s.emitter.Emit(ctx, audit.Event{
		Action:   action,
		ActorID:  actor.ID.String(),
		EntityID: r.ID.String(),
		Detail:   string(r.BloodGroup),
	})
	if s.metrics != nil {
		switch r.Status {
		case models.StatusApproved:
			s.metrics.RequestsApproved.Inc()
		case models.StatusRejected:
			s.metrics.RequestsRejected.Inc()
		}
		s.metrics.ObserveResolve(start)
	}
}
