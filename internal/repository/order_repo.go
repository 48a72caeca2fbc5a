package repository

import (
	"context"

	"github.com/codares/order-ingestion/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository persists the validated orders of a completed batch
// load. A row already rejected by validation never reaches here.
type OrderRepository interface {
	CreateBatch(ctx context.Context, batchLoadID string, orders []domain.ValidatedOrder) error
}

type GormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepo(db *gorm.DB) *GormOrderRepo {
	return &GormOrderRepo{db: db}
}

// WithTx returns a repo bound to an in-flight transaction.
func (r *GormOrderRepo) WithTx(tx *gorm.DB) *GormOrderRepo {
	return &GormOrderRepo{db: tx}
}

func (r *GormOrderRepo) CreateBatch(ctx context.Context, batchLoadID string, orders []domain.ValidatedOrder) error {
	if len(orders) == 0 {
		return nil
	}

	models := make([]OrderModel, 0, len(orders))
	for _, o := range orders {
		models = append(models, orderModelFromDomain(o, uuid.NewString(), batchLoadID))
	}

	return r.db.WithContext(ctx).CreateInBatches(&models, 100).Error
}
