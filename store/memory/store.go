// Package memory implements the user store in process memory. It exists for
// tests and for single-process deployments that do not need durability; the
// error contract matches the database-backed stores exactly.
package memory

import (
	"context"
	"sync"

	"github.com/kvels/authcore"
)

// Store keeps users in two maps guarded by one mutex.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]authcore.User
	byEmail map[string]int64
}

var _ authcore.UserStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID:  1,
		byID:    make(map[int64]authcore.User),
		byEmail: make(map[string]int64),
	}
}

func (s *Store) Create(_ context.Context, email, passwordHash string, isAdmin, isConfirmed bool) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, authcore.ErrEmailAlreadyExists
	}

	u := authcore.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		IsConfirmed:  isConfirmed,
	}
	s.nextID++
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID

	out := u
	return &out, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	out := u
	return &out, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*authcore.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, authcore.ErrUserNotFound
	}
	out := s.byID[id]
	return &out, nil
}

func (s *Store) Update(_ context.Context, u *authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[u.ID]
	if !ok {
		return authcore.ErrUserNotFound
	}

	if current.Email != u.Email {
		if other, taken := s.byEmail[u.Email]; taken && other != u.ID {
			return authcore.ErrEmailAlreadyExists
		}
		delete(s.byEmail, current.Email)
		s.byEmail[u.Email] = u.ID
	}
	s.byID[u.ID] = *u
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, u.Email)
	return nil
}

// Len reports the number of stored users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
