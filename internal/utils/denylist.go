package utils

import (
	"context" // Context for Redis operations
	"time"    // Remaining token lifetime

	"github.com/redis/go-redis/v9" // Redis client
)

// Revocation is the record stored for a revoked token
type Revocation struct {
	UserID    uint      `json:"user_id"`    // Owner of the token
	RevokedAt time.Time `json:"revoked_at"` // When logout happened
}

// TokenDenylist remembers revoked token IDs until the tokens would have expired anyway
type TokenDenylist struct {
	revoked *Cache[Revocation]
	now     func() time.Time
}

// NewTokenDenylist creates a TokenDenylist backed by Redis
func NewTokenDenylist(rdb redis.Cmdable) *TokenDenylist {
	return &TokenDenylist{revoked: NewCache[Revocation](rdb, "auth:revoked:"), now: time.Now}
}

// Revoke marks a token ID as revoked until expiresAt
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, userID uint, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil // Already expired, nothing to remember
	}
	return d.revoked.Set(ctx, tokenID, Revocation{UserID: userID, RevokedAt: d.now()}, ttl)
}

// IsRevoked reports whether a token ID has been revoked
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, found, err := d.revoked.Get(ctx, tokenID)
	return found, err
}
