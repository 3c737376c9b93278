// Package dashboard aggregates read-only views for the admin and donor home
// screens. It owns no state: every number comes from the workflow stores and
// the inventory ledger, fanned out concurrently.
package dashboard

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	donmodels "bloodlink/internal/donation/models"
	donormodels "bloodlink/internal/donor/models"
	"bloodlink/internal/platform/metrics"
	reqmodels "bloodlink/internal/request/models"
	"bloodlink/pkg/domain"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
	"bloodlink/pkg/requestcontext"
)

const recentLimit = 5

// RequestSource is the slice of the request store the dashboard reads.
type RequestSource interface {
	List(ctx context.Context, filter reqmodels.Filter) ([]*reqmodels.BloodRequest, error)
	Count(ctx context.Context, filter reqmodels.Filter) (int, error)
}

// DonationSource is the slice of the donation store the dashboard reads.
type DonationSource interface {
	List(ctx context.Context, filter donmodels.Filter) ([]*donmodels.Donation, error)
	Count(ctx context.Context, filter donmodels.Filter) (int, error)
}

// ProfileSource resolves a donor's own profile.
type ProfileSource interface {
	FindByUser(ctx context.Context, userID domain.UserID) (*donormodels.DonorProfile, error)
}

// DonorCounter counts active donor accounts.
type DonorCounter interface {
	TotalDonors(ctx context.Context) (int, error)
}

// Service builds the two dashboard views.
type Service struct {
	requests     RequestSource
	donations    DonationSource
	profiles     ProfileSource
	donors       DonorCounter
	availability AvailabilitySource
	metrics      *metrics.Metrics
}

// New creates the dashboard service. availability is normally the redis-backed
// cache; metrics may be nil.
func New(requests RequestSource, donations DonationSource, profiles ProfileSource,
	donors DonorCounter, availability AvailabilitySource, m *metrics.Metrics) *Service {
	return &Service{
		requests:     requests,
		donations:    donations,
		profiles:     profiles,
		donors:       donors,
		availability: availability,
		metrics:      m,
	}
}

// AdminView is the admin home screen aggregate.
type AdminView struct {
	TotalDonors     int                       `json:"total_donors"`
	TotalRequests   int                       `json:"total_requests"`
	PendingRequests int                       `json:"pending_requests"`
	TotalDonations  int                       `json:"total_donations"`
	Availability    map[domain.BloodGroup]int `json:"availability_by_group"`
	RecentRequests  []*reqmodels.BloodRequest `json:"recent_requests"`
	RecentDonations []*donmodels.Donation     `json:"recent_donations"`
}

// Admin builds the admin view. All reads fan out concurrently.
func (s *Service) Admin(ctx context.Context) (*AdminView, error) {
	start := time.Now()
	if !requestcontext.Actor(ctx).IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}

	var view AdminView
	pending := reqmodels.StatusPending

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.TotalDonors, err = s.donors.TotalDonors(gctx)
		return err
	})
	g.Go(func() (err error) {
		view.TotalRequests, err = s.requests.Count(gctx, reqmodels.Filter{})
		return err
	})
	g.Go(func() (err error) {
		view.PendingRequests, err = s.requests.Count(gctx, reqmodels.Filter{Status: &pending})
		return err
	})
	g.Go(func() (err error) {
		view.TotalDonations, err = s.donations.Count(gctx, donmodels.Filter{})
		return err
	})
	g.Go(func() (err error) {
		view.Availability, err = s.availability.AvailabilityByGroup(gctx)
		return err
	})
	g.Go(func() (err error) {
		view.RecentRequests, err = s.requests.List(gctx, reqmodels.Filter{Limit: recentLimit})
		return err
	})
	g.Go(func() (err error) {
		view.RecentDonations, err = s.donations.List(gctx, donmodels.Filter{Limit: recentLimit})
		return err
	})
	if err := g.Wait(); err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build admin dashboard")
	}

	s.observe(start)
	return &view, nil
}

// DonorView is the donor home screen aggregate.
type DonorView struct {
	Profile      *donormodels.DonorProfile `json:"profile,omitempty"`
	Availability map[domain.BloodGroup]int `json:"availability_by_group"`
	Requests     []*reqmodels.BloodRequest `json:"requests"`
	Donations    []*donmodels.Donation     `json:"donations"`
}

// Donor builds the donor view for the authenticated actor.
func (s *Service) Donor(ctx context.Context) (*DonorView, error) {
	start := time.Now()
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "donor role required")
	}

	var view DonorView
	self := actor.ID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.FindByUser(gctx, self)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil // a donor without a profile still gets a dashboard
		}
		view.Profile = p
		return err
	})
	g.Go(func() (err error) {
		view.Availability, err = s.availability.AvailabilityByGroup(gctx)
		return err
	})
	g.Go(func() (err error) {
		view.Requests, err = s.requests.List(gctx, reqmodels.Filter{RequesterID: &self})
		return err
	})
	g.Go(func() (err error) {
		view.Donations, err = s.donations.List(gctx, donmodels.Filter{DonorID: &self})
		return err
	})
	if err := g.Wait(); err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build donor dashboard")
	}

	if view.Requests == nil {
		view.Requests = []*reqmodels.BloodRequest{}
	}
	if view.Donations == nil {
		view.Donations = []*donmodels.Donation{}
	}

	s.observe(start)
	return &view, nil
}

func (s *Service) observe(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDashboard(start)
	}
}
