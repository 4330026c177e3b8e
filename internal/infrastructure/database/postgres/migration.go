// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/domain/order"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: log,
	}
}

// RunAutoMigrations runs GORM auto-migrations for the journal models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	// parents before children
	models := []interface{}{
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for the journal queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_created ON orders(customer_code, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_number ON orders(customer_code, order_number)",
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_status ON orders(customer_code, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_doc_date ON orders(doc_date)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
	}

	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	m.log.WithField("count", len(indexes)).Info("Database indexes ensured")
	return nil
}

// DropAllTables drops the journal tables. Development use only.
func (m *Migration) DropAllTables() error {
	tables := []interface{}{
		&order.OrderStatusHistory{},
		&order.OrderItem{},
		&order.Order{},
	}
	for _, table := range tables {
		if err := m.db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", table, err)
		}
	}
	return nil
}
