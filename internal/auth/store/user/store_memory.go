package user

import (
	"context"
	"fmt"
	"sync"

	"phonetrack/internal/auth/models"
	"phonetrack/internal/sentinel"
	id "phonetrack/pkg/domain"
)

// Error Contract:
// - Create returns sentinel.ErrAlreadyUsed when the email is taken
// - Find methods return sentinel.ErrNotFound when the user does not exist
// InMemoryUserStore keeps users in memory for tests and database-less runs.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// Create inserts the user. The uniqueness check and insert happen under one
// lock so concurrent signups for the same email cannot both succeed.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[user.Email]; taken {
		return fmt.Errorf("user already exists: %w", sentinel.ErrAlreadyUsed)
	}
	stored := *user
	s.users[user.ID] = &stored
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[email]; ok {
		found := *s.users[userID]
		return &found, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}
