package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codares/order-ingestion/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const idempotencyCacheTTL = 5 * time.Minute

type cachedBatchLoad struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	TotalProcessed int    `json:"totalProcessed"`
	SuccessCount   int    `json:"successCount"`
	ErrorCount     int    `json:"errorCount"`
}

// IdempotencyCache is a read-through optimization in front of the
// idempotency store's lookup. A miss always falls through to
// Postgres, which remains the sole source of truth for the
// (idempotency_key, file_hash) uniqueness guarantee — this cache
// exists only to absorb replay storms cheaply.
type IdempotencyCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client, ttl: idempotencyCacheTTL}
}

func NewIdempotencyCacheWithTTL(client *goredis.Client, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = idempotencyCacheTTL
	}
	return &IdempotencyCache{client: client, ttl: ttl}
}

func cacheKey(idempotencyKey, fileHash string) string {
	return fmt.Sprintf("idem:%s:%s", idempotencyKey, fileHash)
}

// Get returns the cached batch load for (key, digest), or nil on a
// cache miss. A miss is not an error: the caller falls through to
// the database.
func (c *IdempotencyCache) Get(ctx context.Context, idempotencyKey, fileHash string) (*domain.BatchLoad, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	raw, err := c.client.Get(ctx, cacheKey(idempotencyKey, fileHash)).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency cache: %w", err)
	}

	var cached cachedBatchLoad
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached batch load: %w", err)
	}

	status, err := domain.ParseBatchLoadStatusFromString(cached.Status)
	if err != nil {
		return nil, nil
	}

	return &domain.BatchLoad{
		ID:             cached.ID,
		IdempotencyKey: idempotencyKey,
		FileHash:       fileHash,
		Status:         status,
		TotalProcessed: cached.TotalProcessed,
		SuccessCount:   cached.SuccessCount,
		ErrorCount:     cached.ErrorCount,
	}, nil
}

// Set populates or refreshes the cache entry. Called after every
// reserve/lookup/finalize/fail so a replay storm hits Redis, not Postgres.
func (c *IdempotencyCache) Set(ctx context.Context, b *domain.BatchLoad) error {
	if c == nil || c.client == nil || b == nil {
		return nil
	}

	payload, err := json.Marshal(cachedBatchLoad{
		ID:             b.ID,
		Status:         b.Status.String(),
		TotalProcessed: b.TotalProcessed,
		SuccessCount:   b.SuccessCount,
		ErrorCount:     b.ErrorCount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode batch load for cache: %w", err)
	}

	return c.client.Set(ctx, cacheKey(b.IdempotencyKey, b.FileHash), payload, c.ttl).Err()
}
