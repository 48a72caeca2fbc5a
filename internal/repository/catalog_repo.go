package repository

import (
	"context"

	"github.com/codares/order-ingestion/internal/domain"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// CatalogRepository loads the referential data a batch load is
// validated against: active clients, zone refrigeration capability,
// and the order numbers already on file.
type CatalogRepository interface {
	LoadSnapshot(ctx context.Context) (*domain.CatalogSnapshot, error)
}

type GormCatalogRepo struct {
	db *gorm.DB
}

func NewGormCatalogRepo(db *gorm.DB) *GormCatalogRepo {
	return &GormCatalogRepo{db: db}
}

// LoadSnapshot runs the three catalog queries concurrently; a failure
// in any one aborts the whole snapshot, since a partial view would
// validate rows against stale or incomplete reference data.
func (r *GormCatalogRepo) LoadSnapshot(ctx context.Context) (*domain.CatalogSnapshot, error) {
	var (
		activeClients []string
		zones         map[string]bool
		orderNumbers  []string
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var ids []string
		if err := r.db.WithContext(ctx).
			Model(&ClientModel{}).
			Where("is_active = ?", true).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		activeClients = ids
		return nil
	})

	g.Go(func() error {
		var models []ZoneModel
		if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
			return err
		}
		zones = make(map[string]bool, len(models))
		for _, z := range models {
			zones[z.ID] = z.RefrigerationCapable
		}
		return nil
	})

	g.Go(func() error {
		var numbers []string
		if err := r.db.WithContext(ctx).
			Model(&OrderModel{}).
			Pluck("order_number", &numbers).Error; err != nil {
			return err
		}
		orderNumbers = numbers
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return domain.NewCatalogSnapshot(activeClients, zones, orderNumbers), nil
}
