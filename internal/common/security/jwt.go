package security

import (
	"errors"
	"time"

	"classhub/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateToken issues a signed token for the user. The jti is what the
// revocation denylist is keyed on, so every token gets a fresh one.
// firstLogin travels as a claim: it stays accurate because the token carrying
// it is revoked when the forced password change succeeds.
func GenerateToken(userID, role string, firstLogin bool) (string, string, error) {
	jti := uuid.NewString()
	claims := jwt.MapClaims{
		"user_id":     userID,
		"role":        role,
		"jti":         jti,
		"first_login": firstLogin,
		"exp":         time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":         time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, jti, err
}

// Helper functions to extract claims, can be used in middleware or services
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}

// GetFirstLoginFromClaims defaults to false when the claim is absent, which
// only happens for tokens minted before the flag existed.
func GetFirstLoginFromClaims(claims jwt.MapClaims) bool {
	firstLogin, ok := claims["first_login"].(bool)
	return ok && firstLogin
}

func GetJTIFromClaims(claims jwt.MapClaims) (string, error) {
	jti, ok := claims["jti"].(string)
	if !ok {
		return "", errors.New("jti claim is missing or not a string")
	}
	return jti, nil
}

// GetExpiryFromClaims returns the token expiry. jwtauth decodes exp as
// float64 or time.Time depending on the path it took.
func GetExpiryFromClaims(claims jwt.MapClaims) (time.Time, error) {
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), nil
	case time.Time:
		return exp, nil
	case int64:
		return time.Unix(exp, 0), nil
	}
	return time.Time{}, errors.New("exp claim is missing or has unexpected type")
}
