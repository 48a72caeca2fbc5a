package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchLoadRepository is the idempotency store, exposing exactly the
// four operations of the lifecycle: lookup, reserve, finalize, fail.
// Each operation runs on the *gorm.DB the repo holds; WithTx binds it to
// an in-flight transaction.
type BatchLoadRepository interface {
	FindByKeyAndDigest(ctx context.Context, idempotencyKey, fileHash string) (*domain.BatchLoad, error)
	Reserve(ctx context.Context, b *domain.BatchLoad) error
	Finalize(ctx context.Context, b *domain.BatchLoad) error
	Fail(ctx context.Context, id string) error
}

type GormBatchLoadRepo struct {
	db *gorm.DB
}

func NewGormBatchLoadRepo(db *gorm.DB) *GormBatchLoadRepo {
	return &GormBatchLoadRepo{db: db}
}

// WithTx returns a repo bound to an in-flight transaction. The
// orchestrator uses it for Finalize, so the finalize commits together
// with the order insert; Reserve and Fail run outside that transaction.
func (r *GormBatchLoadRepo) WithTx(tx *gorm.DB) *GormBatchLoadRepo {
	return &GormBatchLoadRepo{db: tx}
}

func (r *GormBatchLoadRepo) FindByKeyAndDigest(ctx context.Context, idempotencyKey, fileHash string) (*domain.BatchLoad, error) {
	var model BatchLoadModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND file_hash = ?", idempotencyKey, fileHash).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchLoadModelToDomain(&model), nil
}

// Reserve persists the initial PROCESSING row. A unique violation on
// (idempotency_key, file_hash) means a row under that natural key
// already exists: if it is FAILED, a retry after a failed run is
// allowed, so the existing row is reset to PROCESSING and its ID
// adopted; otherwise the conflict is a genuine concurrent reservation
// and is surfaced as domain.ErrAlreadyReserved.
func (r *GormBatchLoadRepo) Reserve(ctx context.Context, b *domain.BatchLoad) error {
	model := batchLoadModelFromDomain(b)
	err := r.db.WithContext(ctx).Create(model).Error
	if err == nil {
		*b = *batchLoadModelToDomain(model)
		return nil
	}
	if !isUniqueViolationError(err) {
		return err
	}

	var existing BatchLoadModel
	lookupErr := r.db.WithContext(ctx).
		Where("idempotency_key = ? AND file_hash = ?", b.IdempotencyKey, b.FileHash).
		First(&existing).Error
	if lookupErr != nil {
		return err
	}
	if existing.Status != domain.BatchLoadStatusFailed {
		return domain.ErrAlreadyReserved
	}

	result := r.db.WithContext(ctx).
		Model(&existing).
		Updates(map[string]any{
			"status":          domain.BatchLoadStatusProcessing,
			"total_processed": 0,
			"success_count":   0,
			"error_count":     0,
		})
	if result.Error != nil {
		return result.Error
	}

	b.ID = existing.ID
	b.Status = domain.BatchLoadStatusProcessing
	b.TotalProcessed = 0
	b.SuccessCount = 0
	b.ErrorCount = 0
	b.CreatedAt = existing.CreatedAt
	return nil
}

// Finalize writes the terminal COMPLETED state plus its row-error
// children. Callers running this inside the orchestrator's
// transaction get atomicity for free; a crash mid-write rolls back
// both the counters and the error rows together.
func (r *GormBatchLoadRepo) Finalize(ctx context.Context, b *domain.BatchLoad) error {
	db := r.db.WithContext(ctx)

	result := db.Model(&BatchLoadModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"status":          b.Status,
			"total_processed": b.TotalProcessed,
			"success_count":   b.SuccessCount,
			"error_count":     b.ErrorCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	if len(b.Errors) == 0 {
		return nil
	}

	for i := range b.Errors {
		if b.Errors[i].ID == "" {
			b.Errors[i].ID = uuid.NewString()
		}
	}
	models := rowErrorModelsFromDomain(b.ID, b.Errors)
	return db.CreateInBatches(&models, 100).Error
}

func (r *GormBatchLoadRepo) Fail(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchLoadModel{}).
		Where("id = ?", id).
		Update("status", domain.BatchLoadStatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolationError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
