package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("samepassword")
	require.NoError(t, err)
	second, err := HashPassword("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCheckPasswordHashInvalidHash(t *testing.T) {
	assert.False(t, CheckPasswordHash("anything", "not-a-bcrypt-hash"))
	assert.False(t, CheckPasswordHash("anything", ""))
}

func TestGenerateTempPassword(t *testing.T) {
	pw, err := GenerateTempPassword(16)
	require.NoError(t, err)
	assert.Len(t, pw, 16)

	for _, c := range pw {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, c), "unexpected character %q", c)
	}
	// 0/O and 1/l/I are confusable and excluded.
	assert.NotContains(t, pw, "0")
	assert.NotContains(t, pw, "O")
	assert.NotContains(t, pw, "l")
}

func TestGenerateTempPasswordDefaultLength(t *testing.T) {
	pw, err := GenerateTempPassword(0)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
}

func TestGenerateTempPasswordUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GenerateTempPassword(12)
		require.NoError(t, err)
		assert.False(t, seen[pw], "duplicate temp password generated")
		seen[pw] = true
	}
}
