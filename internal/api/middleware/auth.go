package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"classhub/internal/app/service"
	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey     contextKey = "userID"
	UserRoleCtxKey   contextKey = "userRole"
	TokenJTICtxKey   contextKey = "tokenJTI"
	TokenExpCtxKey   contextKey = "tokenExp"
	FirstLoginCtxKey contextKey = "firstLogin"
)

// Authenticator validates the verified token's claims and rejects denylisted
// jtis before letting the request through.
func Authenticator(tokenSvc *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

			if err != nil {
				if strings.Contains(err.Error(), "token not found") || token == nil {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
				}
				return
			}

			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			userID, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			userRole, err := security.GetUserRoleFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			jti, err := security.GetJTIFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}
			expiry, err := security.GetExpiryFromClaims(claims)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
				return
			}

			revoked, err := tokenSvc.IsRevoked(r.Context(), jti)
			if err != nil {
				common.RespondWithError(w, http.StatusInternalServerError, "Failed to check token status")
				return
			}
			if revoked {
				common.RespondWithError(w, http.StatusUnauthorized, "Token has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, userRole)
			ctx = context.WithValue(ctx, TokenJTICtxKey, jti)
			ctx = context.WithValue(ctx, TokenExpCtxKey, expiry)
			ctx = context.WithValue(ctx, FirstLoginCtxKey, security.GetFirstLoginFromClaims(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePasswordChanged blocks users still carrying the first-login flag.
// The auth routes (change-password, logout, me) are mounted outside of it.
func RequirePasswordChanged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if firstLogin, ok := r.Context().Value(FirstLoginCtxKey).(bool); ok && firstLogin {
			common.RespondWithError(w, http.StatusForbidden, "Password change required before continuing")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InstructorOrAdmin gates routes that create or manage course content.
// Course-level ownership is checked in the services.
func InstructorOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleCtxKey).(string)
		if !ok || (role != model.RoleInstructor && role != model.RoleAdmin) {
			common.RespondWithError(w, http.StatusForbidden, "Instructor access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok
}

// Helper to get user role from context
func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}

func GetTokenJTIFromContext(ctx context.Context) (string, bool) {
	jti, ok := ctx.Value(TokenJTICtxKey).(string)
	return jti, ok
}

func GetTokenExpiryFromContext(ctx context.Context) (time.Time, bool) {
	expiry, ok := ctx.Value(TokenExpCtxKey).(time.Time)
	return expiry, ok
}
