package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/servicepack/restock-backend/internal/config"
	"github.com/servicepack/restock-backend/internal/domain"
)

const reportKeyPrefix = "restock:report:"

// ReportCache caches computed recommendation reports per coefficient pair.
// The SKU grouping itself is never cached — only the finished report, and
// every import invalidates it. A nil *ReportCache is a no-op, so callers
// don't branch on whether caching is enabled.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache connects to redis using the cache config. Returns nil
// (disabled) when cfg.Enabled is false.
func NewReportCache(cfg config.CacheConfig) (*ReportCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &ReportCache{client: client, ttl: ttl}, nil
}

func reportKey(coefRecent, coefTotal float64) string {
	return fmt.Sprintf("%s%g:%g", reportKeyPrefix, coefRecent, coefTotal)
}

// Get returns the cached report for a coefficient pair, or ok=false.
func (c *ReportCache) Get(ctx context.Context, coefRecent, coefTotal float64) ([]domain.Recommendation, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, reportKey(coefRecent, coefTotal)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("report cache read failed")
		}
		return nil, false
	}

	var recs []domain.Recommendation
	if err := json.Unmarshal(payload, &recs); err != nil {
		log.Warn().Err(err).Msg("report cache payload corrupt, ignoring")
		return nil, false
	}
	return recs, true
}

// Set stores a report. Failures are logged, never surfaced: the cache is
// purely an accelerator.
func (c *ReportCache) Set(ctx context.Context, coefRecent, coefTotal float64, recs []domain.Recommendation) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(recs)
	if err != nil {
		log.Warn().Err(err).Msg("report cache encode failed")
		return
	}
	if err := c.client.Set(ctx, reportKey(coefRecent, coefTotal), payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("report cache write failed")
	}
}

// Invalidate drops every cached report. Called after any import.
func (c *ReportCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := deleteKeysWithPrefix(ctx, c.client, reportKeyPrefix, 100); err != nil {
		log.Warn().Err(err).Msg("report cache invalidation failed")
	}
}
