// Package store implements auth.UserStore on gorm (MySQL or PostgreSQL).
package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"wallet_auth/internal/domain"
)

// Retry policy for transient connection faults
const (
	retryBase     = 50 * time.Millisecond
	retryAttempts = 3
)

// UserStore implements auth.UserStore using gorm. The *gorm.DB must be
// opened with TranslateError so uniqueness violations surface as
// gorm.ErrDuplicatedKey.
type UserStore struct {
	db      *gorm.DB
	backoff func() retry.Backoff
}

// NewUserStore creates a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db, backoff: defaultBackoff}
}

func defaultBackoff() retry.Backoff {
	return retry.WithMaxRetries(retryAttempts, retry.NewExponential(retryBase))
}

// FindByID retrieves a user by primary key.
func (s *UserStore) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.first(ctx, "find by id", "id = ?", id)
}

// FindByUsername retrieves a user by username (case-insensitive).
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.first(ctx, "find by username", "username = ?", strings.ToLower(strings.TrimSpace(username)))
}

// FindByWalletAddress retrieves a user by wallet address (case-insensitive).
func (s *UserStore) FindByWalletAddress(ctx context.Context, address string) (*domain.User, error) {
	return s.first(ctx, "find by wallet address", "wallet_address = ?", strings.ToLower(strings.TrimSpace(address)))
}

// FindByEmail retrieves a user by email (case-insensitive).
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, "find by email", "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

// Create stores a new user.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	return s.do(ctx, "create", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Create(user).Error
	})
}

// Update applies fields to the user and returns the updated record.
func (s *UserStore) Update(ctx context.Context, id uint, fields domain.Fields) (*domain.User, error) {
	var user domain.User
	err := s.do(ctx, "update", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any(fields))
			if res.Error != nil {
				return res.Error // Rollback
			}
			return tx.First(&user, id).Error // Read back inside the transaction
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes a user, returning false when no row matched.
func (s *UserStore) Delete(ctx context.Context, id uint) (bool, error) {
	var affected int64
	err := s.do(ctx, "delete", func(ctx context.Context) error {
		res := s.db.WithContext(ctx).Delete(&domain.User{}, id)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *UserStore) first(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := s.do(ctx, op, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// do runs fn, retrying transient connection faults, and maps gorm errors to
// the domain store errors.
func (s *UserStore) do(ctx context.Context, op string, fn func(context.Context) error) error {
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	return translateError(op, err)
}

func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return oops.Code("STORE_DUPLICATE").With("operation", op).Wrap(domain.ErrDuplicate)
	default:
		return oops.Code("STORE_FAILED").With("operation", op).Wrap(err)
	}
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
