package service

import (
	"context"
	"testing"
	"time"

	"classhub/internal/domain/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestTokenServiceRevoke(t *testing.T) {
	mr, rdb := testRedis(t)
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, rdb)
	ctx := context.Background()

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, svc.Revoke(ctx, "jti-1", "user-1", model.RevokeReasonLogout, expiresAt))

	revoked, err := svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// The cache entry carries a TTL bounded by the token's remaining lifetime.
	ttl := mr.TTL(revokedKeyPrefix + "jti-1")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestTokenServiceIsRevokedFallsBackToDatabase(t *testing.T) {
	mr, rdb := testRedis(t)
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, rdb)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "jti-2", "user-1", model.RevokeReasonLogout, time.Now().Add(time.Hour)))

	// Simulate Redis losing its state; the Postgres row must still deny the token.
	mr.FlushAll()

	revoked, err := svc.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenServiceIsRevokedUnknownJTI(t *testing.T) {
	_, rdb := testRedis(t)
	svc := NewTokenService(newFakeTokenRepo(), rdb)

	revoked, err := svc.IsRevoked(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenServiceRevokeExpiredTokenSkipsCache(t *testing.T) {
	mr, rdb := testRedis(t)
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, rdb)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "jti-old", "user-1", model.RevokeReasonAdmin, time.Now().Add(-time.Minute)))

	assert.False(t, mr.Exists(revokedKeyPrefix+"jti-old"))

	// The database row is written regardless.
	revoked, err := repo.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenServicePurgeExpired(t *testing.T) {
	_, rdb := testRedis(t)
	repo := newFakeTokenRepo()
	svc := NewTokenService(repo, rdb)
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "jti-live", "user-1", model.RevokeReasonLogout, time.Now().Add(time.Hour)))
	require.NoError(t, svc.Revoke(ctx, "jti-dead", "user-1", model.RevokeReasonLogout, time.Now().Add(-time.Hour)))

	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	revoked, err := repo.IsRevoked(ctx, "jti-live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
