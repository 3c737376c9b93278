package store

import (
	"context"
	"strings"
	"sync"

	"bloodlink/internal/auth/models"
	"bloodlink/pkg/domain"
	"bloodlink/pkg/platform/sentinel"
)

// InMemory keeps users in mutex-guarded maps with username and email indexes.
type InMemory struct {
	mu         sync.RWMutex
	users      map[domain.UserID]*models.User
	byUsername map[string]domain.UserID
	byEmail    map[string]domain.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[domain.UserID]*models.User),
		byUsername: make(map[string]domain.UserID),
		byEmail:    make(map[string]domain.UserID),
	}
}

func (s *InMemory) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(u.Username)
	email := strings.ToLower(u.Email)
	if _, taken := s.byUsername[username]; taken {
		return sentinel.ErrConflict
	}
	if _, taken := s.byEmail[email]; taken {
		return sentinel.ErrConflict
	}

	clone := *u
	s.users[u.ID] = &clone
	s.byUsername[username] = u.ID
	s.byEmail[email] = u.ID
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *InMemory) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.users[id]
	return &clone, nil
}

// Lookup returns the users that exist among the given IDs.
func (s *InMemory) Lookup(ctx context.Context, ids []domain.UserID) (map[domain.UserID]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.UserID]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			clone := *u
			out[id] = &clone
		}
	}
	return out, nil
}

// CountByRole returns the number of active users with the role.
func (s *InMemory) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, u := range s.users {
		if u.Role == role && u.IsActive {
			n++
		}
	}
	return n, nil
}
