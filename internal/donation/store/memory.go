package store

import (
	"context"
	"sort"
	"sync"

	"bloodlink/internal/donation/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps donations in a mutex-guarded map.
//
// Execute holds the write lock across validate and mutate so a donation
// cannot be completed twice by racing admins.
type InMemory struct {
	mu        sync.RWMutex
	donations map[domain.DonationID]*models.Donation
}

func NewInMemory() *InMemory {
	return &InMemory{donations: make(map[domain.DonationID]*models.Donation)}
}

func (s *InMemory) Create(ctx context.Context, d *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[d.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *d
	s.donations[d.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.DonationID) (*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *d
	return &clone, nil
}

// Execute atomically validates and mutates one donation.
func (s *InMemory) Execute(ctx context.Context, id domain.DonationID,
	validate func(ctx context.Context, d *models.Donation) error,
	mutate func(d *models.Donation),
) (*models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.donations[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(ctx, d); err != nil {
		return nil, err
	}
	mutate(d)
	clone := *d
	return &clone, nil
}

// List returns matching donations ordered by creation time descending.
func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Donation
	for _, d := range s.donations {
		if filter.Matches(d) {
			clone := *d
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Count returns the number of donations matching the filter.
func (s *InMemory) Count(ctx context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, d := range s.donations {
		if filter.Matches(d) {
			n++
		}
	}
	return n, nil
}
