package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"

	"wallet_auth/internal/domain"
)

// DefaultTokenTTL is how long an issued session token stays valid.
const DefaultTokenTTL = time.Hour

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id"`                  // Custom claim for user ID
	WalletAddress        string `json:"wallet_address,omitempty"` // Set by wallet login
	jwt.RegisteredClaims        // Standard JWT claims
}

// ClaimOption adds optional claims to an issued token
type ClaimOption func(*Claims)

// WithWalletAddress embeds the wallet address so consumers can skip a lookup
func WithWalletAddress(address string) ClaimOption {
	return func(c *Claims) {
		c.WalletAddress = address
	}
}

// TokenIssuer mints and verifies HS256 session tokens
type TokenIssuer struct {
	secret []byte           // Process-wide signing secret
	issuer string           // "iss" claim, checked on parse
	ttl    time.Duration    // Token lifetime
	now    func() time.Time // Clock, swappable in tests
}

// NewTokenIssuer creates a TokenIssuer. The secret must not be empty.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_TOKEN_CONFIG").Errorf("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *t
	cp.now = now
	return &cp
}

// Issue creates a signed token for a given user ID
func (t *TokenIssuer) Issue(userID uint, opts ...ClaimOption) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),                   // Unique token ID, used for revocation
			Issuer:    t.issuer,                           // Issuing service
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),            // Issued at current time
			NotBefore: jwt.NewNumericDate(now),            // Valid from now
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)), // Short-lived
		},
	}
	for _, opt := range opts {
		opt(&claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	signed, err := token.SignedString(t.secret)                // Sign the token with the secret
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Parse validates a token string and returns its claims. Every failure maps
// to domain.ErrTokenInvalid; there is no anonymous fallback.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), // Reject alg substitution
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return t.secret, nil // Return the secret key for validation
	}, opts...)
	if err != nil {
		return nil, oops.With("reason", err.Error()).Wrap(domain.ErrTokenInvalid)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
