package redis

import (
	"context"
	"testing"

	"github.com/codares/order-ingestion/internal/domain"
)

func TestIdempotencyCache_SetThenGet(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)
	cache := NewIdempotencyCache(rdb)

	batch := &domain.BatchLoad{
		ID:             "batch-1",
		IdempotencyKey: "batch-A",
		FileHash:       "abc123",
		Status:         domain.BatchLoadStatusCompleted,
		TotalProcessed: 3,
		SuccessCount:   2,
		ErrorCount:     1,
	}

	if err := cache.Set(context.Background(), batch); err != nil {
		t.Fatalf("Set() unexpected error = %v", err)
	}

	got, err := cache.Get(context.Background(), "batch-A", "abc123")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want cached batch load")
	}
	if got.ID != batch.ID || got.Status != batch.Status || got.SuccessCount != batch.SuccessCount {
		t.Errorf("Get() = %+v, want matching fields from %+v", got, batch)
	}
}

func TestIdempotencyCache_MissReturnsNilNoError(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)
	cache := NewIdempotencyCache(rdb)

	got, err := cache.Get(context.Background(), "unknown-key", "unknown-hash")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil on cache miss", got)
	}
}

func TestIdempotencyCache_DistinctDigestsMiss(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)
	cache := NewIdempotencyCache(rdb)

	batch := &domain.BatchLoad{
		ID:             "batch-2",
		IdempotencyKey: "batch-B",
		FileHash:       "hash-1",
		Status:         domain.BatchLoadStatusProcessing,
	}
	if err := cache.Set(context.Background(), batch); err != nil {
		t.Fatalf("Set() unexpected error = %v", err)
	}

	got, err := cache.Get(context.Background(), "batch-B", "hash-2")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for a different file hash", got)
	}
}
