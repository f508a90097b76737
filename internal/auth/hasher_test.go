package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wallet_auth/internal/auth"
)

func TestBcryptHasher(t *testing.T) {
	h := auth.NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hash)

	ok, err := h.Verify("p1", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	_, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("")
	assert.Error(t, err)
}

func TestBcryptHasher_InvalidHash(t *testing.T) {
	ok, err := auth.NewBcryptHasher(bcrypt.MinCost).Verify("p1", "not-a-bcrypt-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_NeedsUpgrade(t *testing.T) {
	weak, err := auth.NewBcryptHasher(bcrypt.MinCost).Hash("p1")
	require.NoError(t, err)

	assert.True(t, auth.NewBcryptHasher(bcrypt.MinCost+1).NeedsUpgrade(weak))
	assert.False(t, auth.NewBcryptHasher(bcrypt.MinCost).NeedsUpgrade(weak))
	assert.False(t, auth.NewBcryptHasher(bcrypt.MinCost).NeedsUpgrade("garbage"))
}
