package repository

import (
	"time"

	"github.com/codares/order-ingestion/internal/domain"
)

// BatchLoadModel is the persistence model for batch_loads, the
// idempotency aggregate root. The unique constraint on
// (idempotency_key, file_hash) is declared in the migration, not here,
// since GORM struct tags cannot express a composite unique index
// cleanly across drivers.
type BatchLoadModel struct {
	ID             string                 `gorm:"type:uuid;primaryKey"`
	IdempotencyKey string                 `gorm:"type:varchar(255);not null"`
	FileHash       string                 `gorm:"type:varchar(64);not null"`
	Status         domain.BatchLoadStatus `gorm:"type:varchar(20);not null"`
	TotalProcessed int                    `gorm:"not null;default:0"`
	SuccessCount   int                    `gorm:"not null;default:0"`
	ErrorCount     int                    `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (BatchLoadModel) TableName() string {
	return "batch_loads"
}

// RowErrorModel is the persistence model for batch_load_errors, owned
// exclusively by its parent batch load.
type RowErrorModel struct {
	ID          string              `gorm:"type:uuid;primaryKey"`
	BatchLoadID string              `gorm:"type:uuid;not null;index"`
	LineNumber  int                 `gorm:"not null"`
	Code        domain.RowErrorCode `gorm:"type:varchar(40);not null"`
	Message     string              `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

func (RowErrorModel) TableName() string {
	return "batch_load_errors"
}

// OrderModel is the persistence model for orders, the authoritative
// write target of a successful batch load.
type OrderModel struct {
	ID                    string             `gorm:"type:uuid;primaryKey"`
	OrderNumber           string             `gorm:"type:varchar(64);not null;uniqueIndex"`
	ClientID              string             `gorm:"type:varchar(64);not null;index"`
	DeliveryDate          time.Time          `gorm:"type:date;not null"`
	Status                domain.OrderStatus `gorm:"type:varchar(20);not null"`
	ZoneID                string             `gorm:"type:varchar(64);not null"`
	RequiresRefrigeration bool               `gorm:"not null;default:false"`
	BatchLoadID           string             `gorm:"type:uuid;not null;index"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// ClientModel backs catalog snapshot reads. Managed outside this
// module; only read here.
type ClientModel struct {
	ID       string `gorm:"type:varchar(64);primaryKey"`
	IsActive bool   `gorm:"not null;default:true"`
}

func (ClientModel) TableName() string {
	return "clients"
}

// ZoneModel backs catalog snapshot reads.
type ZoneModel struct {
	ID                   string `gorm:"type:varchar(64);primaryKey"`
	RefrigerationCapable bool   `gorm:"not null;default:false"`
}

func (ZoneModel) TableName() string {
	return "zones"
}

func batchLoadModelFromDomain(b *domain.BatchLoad) *BatchLoadModel {
	if b == nil {
		return nil
	}
	return &BatchLoadModel{
		ID:             b.ID,
		IdempotencyKey: b.IdempotencyKey,
		FileHash:       b.FileHash,
		Status:         b.Status,
		TotalProcessed: b.TotalProcessed,
		SuccessCount:   b.SuccessCount,
		ErrorCount:     b.ErrorCount,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func batchLoadModelToDomain(m *BatchLoadModel) *domain.BatchLoad {
	if m == nil {
		return nil
	}
	return &domain.BatchLoad{
		ID:             m.ID,
		IdempotencyKey: m.IdempotencyKey,
		FileHash:       m.FileHash,
		Status:         m.Status,
		TotalProcessed: m.TotalProcessed,
		SuccessCount:   m.SuccessCount,
		ErrorCount:     m.ErrorCount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func rowErrorModelsFromDomain(batchLoadID string, errs []domain.RowErrorRecord) []RowErrorModel {
	models := make([]RowErrorModel, 0, len(errs))
	for _, e := range errs {
		models = append(models, RowErrorModel{
			ID:          e.ID,
			BatchLoadID: batchLoadID,
			LineNumber:  e.LineNumber,
			Code:        e.Code,
			Message:     e.Message,
			CreatedAt:   e.CreatedAt,
		})
	}
	return models
}

func rowErrorModelsToDomain(models []RowErrorModel) []domain.RowErrorRecord {
	errs := make([]domain.RowErrorRecord, 0, len(models))
	for _, m := range models {
		errs = append(errs, domain.RowErrorRecord{
			ID:         m.ID,
			LineNumber: m.LineNumber,
			Code:       m.Code,
			Message:    m.Message,
			CreatedAt:  m.CreatedAt,
		})
	}
	return errs
}

func orderModelFromDomain(o domain.ValidatedOrder, id, batchLoadID string) OrderModel {
	return OrderModel{
		ID:                    id,
		OrderNumber:           o.OrderNumber,
		ClientID:              o.ClientID,
		DeliveryDate:          o.DeliveryDate,
		Status:                o.Status,
		ZoneID:                o.ZoneID,
		RequiresRefrigeration: o.RequiresRefrigeration,
		BatchLoadID:           batchLoadID,
	}
}
