// Package memstore is an in-process auth.UserStore for local runs and tests.
// It enforces the same uniqueness rules as the SQL schema.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"wallet_auth/internal/domain"
)

// Store keeps users in memory. The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	nextID  uint
	byID    map[uint]*domain.User
	now     func() time.Time
	creates int
}

// New creates an empty Store.
func New() *Store {
	return &Store{nextID: 1, byID: make(map[uint]*domain.User), now: time.Now}
}

// Creates returns how many users have been inserted, including since-deleted ones.
func (s *Store) Creates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creates
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// FindByID retrieves a user by primary key.
func (s *Store) FindByID(_ context.Context, id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[id]; ok {
		return clone(u), nil
	}
	return nil, domain.ErrNotFound
}

// FindByUsername retrieves a user by username (case-insensitive).
func (s *Store) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return fold(u.Username, username) })
}

// FindByWalletAddress retrieves a user by wallet address (case-insensitive).
func (s *Store) FindByWalletAddress(_ context.Context, address string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.WalletAddress != nil && fold(*u.WalletAddress, address) })
}

// FindByEmail retrieves a user by email (case-insensitive).
func (s *Store) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email != nil && fold(*u.Email, email) })
}

// Create stores a new user, assigning its ID and timestamps.
func (s *Store) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflicts(user, 0) {
		return domain.ErrDuplicate
	}
	now := s.now()
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.nextID++
	s.creates++
	s.byID[user.ID] = clone(user)
	return nil
}

// Update applies fields and returns the updated user.
func (s *Store) Update(_ context.Context, id uint, fields domain.Fields) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := clone(current)
	if err := next.ApplyFields(fields); err != nil {
		return nil, err
	}
	if s.conflicts(next, id) {
		return nil, domain.ErrDuplicate
	}
	next.UpdatedAt = s.now()
	s.byID[id] = next
	return clone(next), nil
}

// Delete removes a user, returning false when it did not exist.
func (s *Store) Delete(_ context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	return true, nil
}

func (s *Store) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

// conflicts reports whether candidate collides with any user other than self.
// Callers hold the write lock.
func (s *Store) conflicts(candidate *domain.User, self uint) bool {
	for id, u := range s.byID {
		if id == self {
			continue
		}
		if fold(u.Username, candidate.Username) ||
			bothSet(u.Email, candidate.Email) && fold(*u.Email, *candidate.Email) ||
			bothSet(u.WalletAddress, candidate.WalletAddress) && fold(*u.WalletAddress, *candidate.WalletAddress) {
			return true
		}
	}
	return false
}

func bothSet(a, b *string) bool {
	return a != nil && b != nil
}

func fold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func clone(u *domain.User) *domain.User {
	cp := *u
	cp.PasswordHash = copyString(u.PasswordHash)
	cp.Email = copyString(u.Email)
	cp.WalletAddress = copyString(u.WalletAddress)
	cp.Preferences = u.Preferences.Clone()
	return &cp
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
