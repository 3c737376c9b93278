package store

import (
	"context"
	"sort"
	"sync"

	"bloodlink/internal/request/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps blood requests in a mutex-guarded map.
//
// Execute holds the write lock across validate and mutate, which is what
// guards a request against two admins resolving it at the same time.
type InMemory struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.BloodRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[domain.RequestID]*models.BloodRequest)}
}

func (s *InMemory) Create(ctx context.Context, r *models.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *r
	s.requests[r.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// Execute atomically validates and mutates one request.
// validate runs while the store lock is held; if it fails, the request is
// left untouched and the error is returned as-is.
func (s *InMemory) Execute(ctx context.Context, id domain.RequestID,
	validate func(ctx context.Context, r *models.BloodRequest) error,
	mutate func(r *models.BloodRequest),
) (*models.BloodRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(ctx, r); err != nil {
		return nil, err
	}
	mutate(r)
	clone := *r
	return &clone, nil
}

// List returns matching requests ordered by creation time descending.
func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BloodRequest
	for _, r := range s.requests {
		if filter.Matches(r) {
			clone := *r
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

// Count returns the number of requests matching the filter.
func (s *InMemory) Count(ctx context.Context, filter models.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.requests {
		if filter.Matches(r) {
			n++
		}
	}
	return n, nil
}
