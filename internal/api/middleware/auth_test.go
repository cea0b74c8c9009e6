package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"classhub/internal/app/service"
	"classhub/internal/common"
	"classhub/internal/common/security"
	"classhub/internal/domain/model"
	"classhub/internal/platform/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	security.InitJWT()
	os.Exit(m.Run())
}

type memTokenRepo struct {
	mu      sync.Mutex
	revoked map[string]*model.RevokedToken
}

func (r *memTokenRepo) Revoke(ctx context.Context, t *model.RevokedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = map[string]*model.RevokedToken{}
	}
	r.revoked[t.JTI] = t
	return nil
}

func (r *memTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

func (r *memTokenRepo) FindByJTI(ctx context.Context, jti string) (*model.RevokedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.revoked[jti]; ok {
		return t, nil
	}
	return nil, common.ErrNotFound
}

func (r *memTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newTestRouter(t *testing.T) (chi.Router, *service.TokenService) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	tokenSvc := service.NewTokenService(&memTokenRepo{}, rdb)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(Authenticator(tokenSvc))

	echo := func(w http.ResponseWriter, req *http.Request) {
		userID, _ := GetUserIDFromContext(req.Context())
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"user_id": userID})
	}
	r.Get("/open", echo)
	r.Group(func(r chi.Router) {
		r.Use(RequirePasswordChanged)
		r.Get("/gated", echo)
	})
	r.Group(func(r chi.Router) {
		r.Use(AdminOnly)
		r.Get("/admin", echo)
	})
	r.Group(func(r chi.Router) {
		r.Use(InstructorOrAdmin)
		r.Get("/teach", echo)
	})
	return r, tokenSvc
}

func doRequest(t *testing.T, router chi.Router, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatorMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorGarbageToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, "/open", "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatorValidToken(t *testing.T) {
	router, _ := newTestRouter(t)
	token, _, err := security.GenerateToken("user-1", model.RoleStudent, false)
	require.NoError(t, err)

	rec := doRequest(t, router, "/open", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user-1")
}

func TestAuthenticatorRevokedToken(t *testing.T) {
	router, tokenSvc := newTestRouter(t)
	token, jti, err := security.GenerateToken("user-1", model.RoleStudent, false)
	require.NoError(t, err)

	rec := doRequest(t, router, "/open", token)
	require.Equal(t, http.StatusOK, rec.Code)

	// Logout revokes the jti; the same token must stop working.
	require.NoError(t, tokenSvc.Revoke(context.Background(), jti, "user-1", model.RevokeReasonLogout, time.Now().Add(time.Hour)))

	rec = doRequest(t, router, "/open", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}

func TestRequirePasswordChanged(t *testing.T) {
	router, _ := newTestRouter(t)

	fresh, _, err := security.GenerateToken("user-1", model.RoleStudent, true)
	require.NoError(t, err)
	settled, _, err := security.GenerateToken("user-2", model.RoleStudent, false)
	require.NoError(t, err)

	// The first-login token reaches ungated routes but not gated ones.
	assert.Equal(t, http.StatusOK, doRequest(t, router, "/open", fresh).Code)
	rec := doRequest(t, router, "/gated", fresh)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password change required")

	assert.Equal(t, http.StatusOK, doRequest(t, router, "/gated", settled).Code)
}

func TestRoleMiddlewares(t *testing.T) {
	router, _ := newTestRouter(t)

	studentToken, _, err := security.GenerateToken("s-1", model.RoleStudent, false)
	require.NoError(t, err)
	instructorToken, _, err := security.GenerateToken("i-1", model.RoleInstructor, false)
	require.NoError(t, err)
	adminToken, _, err := security.GenerateToken("a-1", model.RoleAdmin, false)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(t, router, "/admin", studentToken).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(t, router, "/admin", instructorToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, "/admin", adminToken).Code)

	assert.Equal(t, http.StatusForbidden, doRequest(t, router, "/teach", studentToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, "/teach", instructorToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(t, router, "/teach", adminToken).Code)
}
