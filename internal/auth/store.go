package auth

import (
	"context"

	"wallet_auth/internal/domain"
)

// UserStore manages user persistence.
//
// Lookups return domain.ErrNotFound when nothing matches. Create and Update
// return domain.ErrDuplicate when a username, email or wallet address is
// already taken; that constraint is the final arbiter for concurrent writes.
type UserStore interface {
	// FindByID retrieves a user by primary key.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername retrieves a user by username (case-insensitive).
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByWalletAddress retrieves a user by wallet address (case-insensitive).
	FindByWalletAddress(ctx context.Context, address string) (*domain.User, error)

	// FindByEmail retrieves a user by email (case-insensitive).
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create stores a new user and fills in its ID and timestamps.
	Create(ctx context.Context, user *domain.User) error

	// Update applies fields to the user and returns the updated record.
	Update(ctx context.Context, id uint, fields domain.Fields) (*domain.User, error)

	// Delete removes a user. It returns false when no row was removed.
	Delete(ctx context.Context, id uint) (bool, error)
}
