package security

import (
	"context"
	"os"
	"testing"
	"time"

	"classhub/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	InitJWT()
	os.Exit(m.Run())
}

func decodeClaims(t *testing.T, tokenString string) jwt.MapClaims {
	t.Helper()
	token, err := jwtauth.VerifyToken(TokenAuth, tokenString)
	require.NoError(t, err)
	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)
	return jwt.MapClaims(claims)
}

func TestGenerateTokenClaims(t *testing.T) {
	tokenString, jti, err := GenerateToken("user-123", "instructor", true)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)
	require.NotEmpty(t, jti)

	claims := decodeClaims(t, tokenString)

	userID, err := GetUserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	role, err := GetUserRoleFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "instructor", role)

	claimJTI, err := GetJTIFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, jti, claimJTI)

	assert.True(t, GetFirstLoginFromClaims(claims))

	exp, err := GetExpiryFromClaims(claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(config.AppConfig.JWTExp), exp, time.Minute)
}

func TestGenerateTokenFirstLoginFalse(t *testing.T) {
	tokenString, _, err := GenerateToken("user-456", "student", false)
	require.NoError(t, err)

	claims := decodeClaims(t, tokenString)
	assert.False(t, GetFirstLoginFromClaims(claims))
}

func TestGenerateTokenUniqueJTI(t *testing.T) {
	_, first, err := GenerateToken("user-1", "student", false)
	require.NoError(t, err)
	_, second, err := GenerateToken("user-1", "student", false)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestClaimHelpersMissingClaims(t *testing.T) {
	empty := jwt.MapClaims{}

	_, err := GetUserIDFromClaims(empty)
	assert.Error(t, err)
	_, err = GetUserRoleFromClaims(empty)
	assert.Error(t, err)
	_, err = GetJTIFromClaims(empty)
	assert.Error(t, err)
	_, err = GetExpiryFromClaims(empty)
	assert.Error(t, err)

	// Tokens minted before the flag existed have no first_login claim.
	assert.False(t, GetFirstLoginFromClaims(empty))
}

func TestGetExpiryFromClaimsTypes(t *testing.T) {
	want := time.Now().Add(time.Hour).Truncate(time.Second)

	for name, claim := range map[string]interface{}{
		"float64":   float64(want.Unix()),
		"int64":     want.Unix(),
		"time.Time": want,
	} {
		exp, err := GetExpiryFromClaims(jwt.MapClaims{"exp": claim})
		require.NoError(t, err, name)
		assert.Equal(t, want.Unix(), exp.Unix(), name)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	tokenString, _, err := GenerateToken("user-789", "student", false)
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-4] + "AAAA"
	_, err = jwtauth.VerifyToken(TokenAuth, tampered)
	assert.Error(t, err)
}
