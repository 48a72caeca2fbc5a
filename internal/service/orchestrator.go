package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/codares/order-ingestion/internal/ingest"
	"github.com/codares/order-ingestion/internal/queue"
	"github.com/codares/order-ingestion/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BatchSummary is the outcome the HTTP surface renders into a response
// body. ErrorsByCode is derived, not stored independently.
type BatchSummary struct {
	BatchLoadID    string
	TotalProcessed int
	StoredCount    int
	ErrorCount     int
	ErrorsByCode   map[domain.RowErrorCode]int
	ErrorDetails   []domain.RowError
}

// ReplayError is returned when an idempotency key/digest pair is
// already COMPLETED or being PROCESSING. The HTTP surface maps this to
// 409 using Code.
type ReplayError struct {
	Code domain.RowErrorCode
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("%s", e.Code)
}

// BatchOrchestrator composes the catalog snapshot, row validator,
// idempotency store, and order writer for one batch. The PROCESSING
// reservation is committed on its own before the snapshot is read; the
// order insert and the finalize then share one Postgres transaction, and
// a failure after the reservation marks it FAILED. A completion event is
// published best-effort afterwards.
type BatchOrchestrator struct {
	db          *gorm.DB
	catalogRepo repository.CatalogRepository
	cache       IdempotencyCacheReader
	publisher   queue.Publisher
	validator   *domain.Validator
	logger      *zap.Logger
	metrics     Metrics
}

// IdempotencyCacheReader is the narrow read/write-through port the
// orchestrator depends on. Implemented by internal/infra/redis.IdempotencyCache;
// kept as an interface here so the orchestrator can be tested without Redis.
type IdempotencyCacheReader interface {
	Get(ctx context.Context, idempotencyKey, fileHash string) (*domain.BatchLoad, error)
	Set(ctx context.Context, b *domain.BatchLoad) error
}

// Metrics is the narrow observability port the orchestrator reports
// ingestion outcomes through.
type Metrics interface {
	IncBatchCompleted(status string)
	IncRowOutcome(code string)
	IncIdempotencyCacheHit()
	IncIdempotencyCacheMiss()
	ObserveBatchSize(rows int)
}

func NewBatchOrchestrator(
	db *gorm.DB,
	catalogRepo repository.CatalogRepository,
	cache IdempotencyCacheReader,
	publisher queue.Publisher,
	validator *domain.Validator,
	logger *zap.Logger,
	metrics Metrics,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		db:          db,
		catalogRepo: catalogRepo,
		cache:       cache,
		publisher:   publisher,
		validator:   validator,
		logger:      logger,
		metrics:     metrics,
	}
}

// Submit runs the full ingestion pipeline for one uploaded file.
func (o *BatchOrchestrator) Submit(ctx context.Context, idempotencyKey string, fileBytes []byte) (*BatchSummary, error) {
	fileHash := ingest.ContentDigest(fileBytes)

	if existing, err := o.lookupExisting(ctx, idempotencyKey, fileHash); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, existing
	}

	rows, err := ingest.ParseRecords(fileBytes)
	if err != nil {
		return nil, err
	}

	batch := domain.NewBatchLoad(uuid.NewString(), idempotencyKey, fileHash)
	batchLoadRepo := repository.NewGormBatchLoadRepo(o.db)

	if err := batchLoadRepo.Reserve(ctx, batch); err != nil {
		if errors.Is(err, domain.ErrAlreadyReserved) {
			return nil, &ReplayError{Code: domain.ErrCodeAlreadyProcessed}
		}
		return nil, fmt.Errorf("failed to reserve batch load: %w", err)
	}
	_ = o.cache.Set(ctx, batch)

	snapshot, err := o.catalogRepo.LoadSnapshot(ctx)
	if err != nil {
		if failErr := batchLoadRepo.Fail(ctx, batch.ID); failErr != nil {
			o.logger.Error("failed to mark batch load failed after snapshot error",
				zap.String("batchLoadId", batch.ID), zap.Error(failErr))
		}
		batch.FailProcessing()
		_ = o.cache.Set(ctx, batch)
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}

	validOrders, rowErrors := validateRows(o.validator, rows, snapshot)
	o.recordRowOutcomes(len(validOrders), rowErrors)
	o.metrics.ObserveBatchSize(len(rows))

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(validOrders) > 0 {
			orderRepo := repository.NewGormOrderRepo(o.db).WithTx(tx)
			if err := orderRepo.CreateBatch(ctx, batch.ID, validOrders); err != nil {
				return fmt.Errorf("failed to insert orders: %w", err)
			}
		}

		batch.FinishProcessing(len(rows), len(validOrders), rowErrorRecords(rowErrors))
		if err := batchLoadRepo.WithTx(tx).Finalize(ctx, batch); err != nil {
			return fmt.Errorf("failed to finalize batch load: %w", err)
		}
		return nil
	})
	if err != nil {
		if failErr := batchLoadRepo.Fail(ctx, batch.ID); failErr != nil {
			o.logger.Error("failed to mark batch load failed after error",
				zap.String("batchLoadId", batch.ID), zap.Error(failErr))
		}
		batch.FailProcessing()
		_ = o.cache.Set(ctx, batch)
		return nil, err
	}

	_ = o.cache.Set(ctx, batch)
	o.metrics.IncBatchCompleted(batch.Status.String())
	o.publishCompletion(ctx, batch)

	return summarize(batch, rowErrors), nil
}

func (o *BatchOrchestrator) lookupExisting(ctx context.Context, idempotencyKey, fileHash string) (*ReplayError, error) {
	cached, err := o.cache.Get(ctx, idempotencyKey, fileHash)
	if err != nil {
		o.logger.Warn("idempotency cache read failed, falling through to database", zap.Error(err))
	}
	if cached != nil {
		o.metrics.IncIdempotencyCacheHit()
		return replayErrorForStatus(cached.Status), nil
	}
	o.metrics.IncIdempotencyCacheMiss()

	batchLoadRepo := repository.NewGormBatchLoadRepo(o.db)
	existing, err := batchLoadRepo.FindByKeyAndDigest(ctx, idempotencyKey, fileHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up existing batch load: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	_ = o.cache.Set(ctx, existing)
	return replayErrorForStatus(existing.Status), nil
}

func replayErrorForStatus(status domain.BatchLoadStatus) *ReplayError {
	switch status {
	case domain.BatchLoadStatusCompleted:
		return &ReplayError{Code: domain.ErrCodeAlreadyProcessed}
	case domain.BatchLoadStatusProcessing:
		return &ReplayError{Code: domain.ErrCodeBeingProcessed}
	default:
		// FAILED is treated as not-present: a new reservation is allowed.
		return nil
	}
}

func validateRows(v *domain.Validator, rows []domain.Row, snapshot *domain.CatalogSnapshot) ([]domain.ValidatedOrder, []domain.RowError) {
	seen := snapshot.SeenOrderNumbers()
	validOrders := make([]domain.ValidatedOrder, 0, len(rows))
	var rowErrors []domain.RowError

	for _, row := range rows {
		order, rowErr := v.ValidateRow(row, snapshot, seen)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		validOrders = append(validOrders, order)
	}

	return validOrders, rowErrors
}

func (o *BatchOrchestrator) recordRowOutcomes(acceptedCount int, rowErrors []domain.RowError) {
	for i := 0; i < acceptedCount; i++ {
		o.metrics.IncRowOutcome("ACCEPTED")
	}
	for _, e := range rowErrors {
		o.metrics.IncRowOutcome(e.Code.String())
	}
}

func rowErrorRecords(rowErrors []domain.RowError) []domain.RowErrorRecord {
	records := make([]domain.RowErrorRecord, 0, len(rowErrors))
	now := time.Now().UTC()
	for _, e := range rowErrors {
		records = append(records, domain.RowErrorRecord{
			ID:         uuid.NewString(),
			LineNumber: e.LineNumber,
			Code:       e.Code,
			Message:    e.Message,
			CreatedAt:  now,
		})
	}
	return records
}

func summarize(batch *domain.BatchLoad, rowErrors []domain.RowError) *BatchSummary {
	errorsByCode := make(map[domain.RowErrorCode]int, len(rowErrors))
	for _, e := range rowErrors {
		errorsByCode[e.Code]++
	}

	return &BatchSummary{
		BatchLoadID:    batch.ID,
		TotalProcessed: batch.TotalProcessed,
		StoredCount:    batch.SuccessCount,
		ErrorCount:     batch.ErrorCount,
		ErrorsByCode:   errorsByCode,
		ErrorDetails:   rowErrors,
	}
}

func (o *BatchOrchestrator) publishCompletion(ctx context.Context, batch *domain.BatchLoad) {
	if o.publisher == nil {
		return
	}

	event := queue.BatchCompletedEvent{
		BatchLoadID:    batch.ID,
		Status:         batch.Status.String(),
		TotalProcessed: batch.TotalProcessed,
		SuccessCount:   batch.SuccessCount,
		ErrorCount:     batch.ErrorCount,
	}
	if err := o.publisher.PublishBatchCompleted(ctx, event); err != nil {
		o.logger.Warn("failed to publish batch completed event",
			zap.String("batchLoadId", batch.ID), zap.Error(err))
	}
}
