package worker

import (
	"context"
	"log"
	"time"

	"classhub/internal/app/service"
)

// TokenJanitor periodically purges revocation entries for tokens that have
// expired (the signature check already rejects those) and flushes the metric
// counter deltas from Redis into Postgres.
type TokenJanitor struct {
	tokenSvc  *service.TokenService
	analytics *service.AnalyticsService
	interval  time.Duration
}

func NewTokenJanitor(tokenSvc *service.TokenService, analytics *service.AnalyticsService, interval time.Duration) *TokenJanitor {
	return &TokenJanitor{tokenSvc: tokenSvc, analytics: analytics, interval: interval}
}

func (j *TokenJanitor) Start(ctx context.Context) {
	log.Printf("Token janitor started, running every %s", j.interval)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Token janitor stopping...")
			// Final flush so counter deltas are not stranded in Redis
			// across a restart longer than Redis persistence.
			j.runOnce(context.Background())
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *TokenJanitor) runOnce(ctx context.Context) {
	purged, err := j.tokenSvc.PurgeExpired(ctx)
	if err != nil {
		log.Printf("ERROR: Janitor failed to purge expired revocations: %v", err)
	} else if purged > 0 {
		log.Printf("Janitor purged %d expired revocation entries", purged)
	}

	if err := j.analytics.Flush(ctx); err != nil {
		log.Printf("ERROR: Janitor failed to flush metrics: %v", err)
	}
}
