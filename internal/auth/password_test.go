package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/campus-auth/internal/auth"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("p@ss1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, "p@ss1")

	assert.True(t, hasher.Verify("p@ss1", hash))
	assert.False(t, hasher.Verify("p@ss2", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestBcryptHasherSalted(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasherVerifyGarbageHash(t *testing.T) {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	assert.False(t, hasher.Verify("anything", "not-a-bcrypt-hash"))
}

func TestBcryptHasherClampsCost(t *testing.T) {
	hasher := auth.NewBcryptHasher(-1)

	hash, err := hasher.Hash("p@ss1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, hasher.Verify("p@ss1", hash))
}
