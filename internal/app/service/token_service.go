package service

import (
	"context"
	"log"
	"time"

	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// TokenService maintains the token denylist. Postgres is the source of
// truth; Redis mirrors each entry with a TTL equal to the remaining token
// lifetime so the per-request check rarely touches the database.
type TokenService struct {
	tokenRepo repository.TokenRepository
	rdb       *redis.Client
}

func NewTokenService(tokenRepo repository.TokenRepository, rdb *redis.Client) *TokenService {
	return &TokenService{tokenRepo: tokenRepo, rdb: rdb}
}

func (s *TokenService) Revoke(ctx context.Context, jti, userID, reason string, expiresAt time.Time) error {
	entry := &model.RevokedToken{
		JTI:       jti,
		UserID:    userID,
		Reason:    reason,
		ExpiresAt: expiresAt,
	}
	if err := s.tokenRepo.Revoke(ctx, entry); err != nil {
		return err
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired, signature check will reject it anyway.
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+jti, reason, ttl).Err(); err != nil {
		// The Postgres row already revokes the token; the fast path just
		// won't catch this jti.
		log.Printf("WARN: Failed to cache revocation for jti %s: %v", jti, err)
	}
	return nil
}

// IsRevoked checks Redis first and falls back to Postgres on a miss, since
// the Redis entry can be lost (restart, eviction) while the row remains.
func (s *TokenService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := s.rdb.Get(ctx, revokedKeyPrefix+jti).Result()
	if err == nil {
		return true, nil
	}
	if err != redis.Nil {
		log.Printf("WARN: Redis denylist check failed for jti %s: %v", jti, err)
	}
	return s.tokenRepo.IsRevoked(ctx, jti)
}

// PurgeExpired is called by the janitor. Redis entries expire on their own.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.PurgeExpired(ctx, time.Now())
}
