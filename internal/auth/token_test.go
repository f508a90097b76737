package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet_auth/internal/auth"
	"wallet_auth/internal/domain"
	"wallet_auth/internal/errutil"
)

const testSecret = "test-secret-0123456789"

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(testSecret, "wallet_auth", time.Hour)
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer(t *testing.T) {
	_, err := auth.NewTokenIssuer("", "wallet_auth", time.Hour)
	assert.Error(t, err)

	issuer, err := auth.NewTokenIssuer(testSecret, "", 0)
	require.NoError(t, err)
	token, err := issuer.Issue(1)
	require.NoError(t, err)
	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, auth.DefaultTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := newIssuer(t)

	token, err := issuer.Issue(42, auth.WithWalletAddress("0xabc"))
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "0xabc", claims.WalletAddress)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "wallet_auth", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	issuer := newIssuer(t)
	a, err := issuer.Issue(1)
	require.NoError(t, err)
	b, err := issuer.Issue(1)
	require.NoError(t, err)

	ca, err := issuer.Parse(a)
	require.NoError(t, err)
	cb, err := issuer.Parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := newIssuer(t)
	past := issuer.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, err := past.Issue(1)
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	errutil.AssertErrorCode(t, err, domain.CodeTokenInvalid)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := newIssuer(t)

	otherKey, err := auth.NewTokenIssuer("another-secret", "wallet_auth", time.Hour)
	require.NoError(t, err)
	forged, err := otherKey.Issue(1)
	require.NoError(t, err)

	otherIssuer, err := auth.NewTokenIssuer(testSecret, "someone_else", time.Hour)
	require.NoError(t, err)
	foreign, err := otherIssuer.Issue(1)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wallet_auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "wallet_auth",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "wallet_auth"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := issuer.Issue(0)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong key", forged},
		{"wrong issuer", foreign},
		{"alg none", unsigned},
		{"alg substitution", hs512},
		{"missing exp", noExpiry},
		{"zero user", noUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuer.Parse(tt.token)
			errutil.AssertErrorCode(t, err, domain.CodeTokenInvalid)
			assert.Nil(t, claims)
		})
	}
}
