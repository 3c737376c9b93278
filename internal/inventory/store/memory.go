package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodlink/internal/inventory/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

type key struct {
	bank  domain.BankID
	group domain.BloodGroup
}

// InMemory implements the ledger store with a single mutex guarding all
// counters. Debit and credit hold the write lock for the whole
// read-modify-write, which gives the per-key linearizability the ledger
// contract demands.
type InMemory struct {
	mu      sync.RWMutex
	entries map[key]*models.Entry
	byID    map[uuid.UUID]key
}

// NewInMemory creates an empty in-memory ledger store.
func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[key]*models.Entry),
		byID:    make(map[uuid.UUID]key),
	}
}

// Debit atomically decrements the counter, refusing to go negative.
// A missing entry counts as zero availability.
func (s *InMemory) Debit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key{bank, group}]
	if !ok {
		return nil, &models.InsufficientUnitsError{Available: 0, Required: amount}
	}
	if e.UnitsAvailable < amount {
		return nil, &models.InsufficientUnitsError{Available: e.UnitsAvailable, Required: amount}
	}

	e.UnitsAvailable -= amount
	e.UpdatedAt = time.Now()
	clone := *e
	return &clone, nil
}

// Credit atomically increments the counter, creating the entry with a zero
// baseline on first credit.
func (s *InMemory) Credit(ctx context.Context, bank domain.BankID, group domain.BloodGroup, amount int) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{bank, group}
	e, ok := s.entries[k]
	if !ok {
		e = &models.Entry{
			ID:         uuid.New(),
			BankID:     bank,
			BloodGroup: group,
		}
		s.entries[k] = e
		s.byID[e.ID] = k
	}
	e.UnitsAvailable += amount
	e.UpdatedAt = time.Now()
	clone := *e
	return &clone, nil
}

// Get returns the entry for a (bank, group) pair.
func (s *InMemory) Get(ctx context.Context, bank domain.BankID, group domain.BloodGroup) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key{bank, group}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *e
	return &clone, nil
}

// GetByID returns the entry with the given primary key.
func (s *InMemory) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.entries[k]
	return &clone, nil
}

// SetUnits overwrites a counter directly (admin override path).
func (s *InMemory) SetUnits(ctx context.Context, id uuid.UUID, units int) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	e := s.entries[k]
	e.UnitsAvailable = units
	e.UpdatedAt = time.Now()
	clone := *e
	return &clone, nil
}

// List returns entries matching the filter, ordered by bank then group for
// stable output.
func (s *InMemory) List(ctx context.Context, filter models.Filter) ([]*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Entry
	for _, e := range s.entries {
		if filter.Matches(e) {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BankID != out[j].BankID {
			return out[i].BankID.String() < out[j].BankID.String()
		}
		return out[i].BloodGroup < out[j].BloodGroup
	})
	return out, nil
}

// AvailabilityByGroup sums units across all banks per blood group.
// Groups with no entries are reported as zero.
func (s *InMemory) AvailabilityByGroup(ctx context.Context) (map[domain.BloodGroup]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[domain.BloodGroup]int, len(domain.BloodGroups))
	for _, g := range domain.BloodGroups {
		totals[g] = 0
	}
	for _, e := range s.entries {
		totals[e.BloodGroup] += e.UnitsAvailable
	}
	return totals, nil
}
