package store

import (
	"context"
	"sort"
	"sync"

	"bloodlink/internal/bank/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps blood banks in a mutex-guarded map.
type InMemory struct {
	mu    sync.RWMutex
	banks map[domain.BankID]*models.BloodBank
}

func NewInMemory() *InMemory {
	return &InMemory{banks: make(map[domain.BankID]*models.BloodBank)}
}

func (s *InMemory) Create(ctx context.Context, b *models.BloodBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.banks[b.ID]; exists {
		return sentinel.ErrConflict
	}
	clone := *b
	s.banks[b.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.BankID) (*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.banks[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *InMemory) Update(ctx context.Context, b *models.BloodBank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banks[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *b
	s.banks[b.ID] = &clone
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id domain.BankID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.banks[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.banks, id)
	return nil
}

// List returns matching banks ordered by name.
func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.BloodBank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BloodBank
	for _, b := range s.banks {
		if filter.Matches(b) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
