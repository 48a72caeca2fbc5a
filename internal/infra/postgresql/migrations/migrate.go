package migrations

import (
	"github.com/codares/order-ingestion/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "000001_create_catalog_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.ClientModel{}, &repository.ZoneModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_clients_is_active ON clients (is_active)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.ClientModel{}, &repository.ZoneModel{})
			},
		},
		{
			ID: "000002_create_batch_loads",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.BatchLoadModel{}); err != nil {
					return err
				}
				indexes := []string{
					`CREATE UNIQUE INDEX IF NOT EXISTS idx_batch_loads_key_hash ON batch_loads (idempotency_key, file_hash)`,
					`CREATE INDEX IF NOT EXISTS idx_batch_loads_status ON batch_loads (status)`,
				}
				for _, sql := range indexes {
					if err := tx.Exec(sql).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.BatchLoadModel{})
			},
		},
		{
			ID: "000003_create_batch_load_errors",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&repository.RowErrorModel{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.RowErrorModel{})
			},
		},
		{
			ID: "000004_create_orders",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&repository.OrderModel{}); err != nil {
					return err
				}
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_orders_batch_load_id ON orders (batch_load_id)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&repository.OrderModel{})
			},
		},
	})

	return m.Migrate()
}
