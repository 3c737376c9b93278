package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"bloodlink/internal/donor/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps donor profiles in a mutex-guarded map keyed by user.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*models.DonorProfile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[domain.UserID]*models.DonorProfile)}
}

// Upsert inserts or replaces the profile for its user.
func (s *InMemory) Upsert(ctx context.Context, p *models.DonorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.profiles[p.UserID] = &clone
	return nil
}

func (s *InMemory) FindByUser(ctx context.Context, userID domain.UserID) (*models.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

// Search returns matching profiles ordered by city then user ID for a stable
// listing.
func (s *InMemory) Search(ctx context.Context, filter models.SearchFilter) ([]*models.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.DonorProfile
	for _, p := range s.profiles {
		if filter.Matches(p) {
			clone := *p
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out, nil
}

// SetLastDonationDate stamps the profile after a completed donation.
func (s *InMemory) SetLastDonationDate(ctx context.Context, userID domain.UserID, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	d := date
	p.LastDonationDate = &d
	p.UpdatedAt = date
	return nil
}
