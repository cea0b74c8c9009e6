package service

import (
	"context"
	"log"
	"strconv"

	"classhub/internal/domain/model"
	"classhub/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const metricKeyPrefix = "metric:"

var knownMetrics = []string{
	model.MetricLogins,
	model.MetricRegistrations,
	model.MetricEnrollments,
	model.MetricSubmissions,
}

// AnalyticsService keeps named event counters. Increments go to Redis;
// the janitor moves the accumulated deltas into the metric_counts table.
// A crash between flushes loses at most one interval of counts, which is
// acceptable for metrics.
type AnalyticsService struct {
	metricRepo repository.MetricRepository
	rdb        *redis.Client
}

func NewAnalyticsService(metricRepo repository.MetricRepository, rdb *redis.Client) *AnalyticsService {
	return &AnalyticsService{metricRepo: metricRepo, rdb: rdb}
}

// Increment never fails the caller's request over a metrics problem.
func (s *AnalyticsService) Increment(ctx context.Context, name string) {
	if err := s.rdb.Incr(ctx, metricKeyPrefix+name).Err(); err != nil {
		log.Printf("WARN: Failed to increment metric %s: %v", name, err)
	}
}

// Snapshot merges persisted totals with not-yet-flushed Redis deltas.
func (s *AnalyticsService) Snapshot(ctx context.Context) (map[string]int64, error) {
	persisted, err := s.metricRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[string]int64{}
	for _, name := range knownMetrics {
		totals[name] = 0
	}
	for _, m := range persisted {
		totals[m.Name] = m.Count
	}

	for _, name := range knownMetrics {
		val, err := s.rdb.Get(ctx, metricKeyPrefix+name).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("WARN: Failed to read metric delta %s: %v", name, err)
			}
			continue
		}
		if delta, err := strconv.ParseInt(val, 10, 64); err == nil {
			totals[name] += delta
		}
	}
	return totals, nil
}

// Flush moves Redis deltas into Postgres. GETDEL keeps the read-and-reset
// atomic so concurrent increments are never dropped.
func (s *AnalyticsService) Flush(ctx context.Context) error {
	for _, name := range knownMetrics {
		val, err := s.rdb.GetDel(ctx, metricKeyPrefix+name).Result()
		if err != nil {
			if err != redis.Nil {
				log.Printf("WARN: Failed to collect metric delta %s: %v", name, err)
			}
			continue
		}
		delta, err := strconv.ParseInt(val, 10, 64)
		if err != nil || delta == 0 {
			continue
		}
		if err := s.metricRepo.Add(ctx, name, delta); err != nil {
			// Push the delta back so it is retried on the next flush.
			log.Printf("ERROR: Failed to persist metric %s (delta %d), restoring: %v", name, delta, err)
			if rerr := s.rdb.IncrBy(ctx, metricKeyPrefix+name, delta).Err(); rerr != nil {
				log.Printf("ERROR: Failed to restore metric delta %s: %v", name, rerr)
			}
		}
	}
	return nil
}
