package postgres

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wawashop/storefront/internal/domain/order"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrationLifecycle(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migration?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	wrapped := Wrap(db)
	t.Cleanup(func() { _ = wrapped.Close() })

	m := NewMigration(wrapped.GetDB(), log)
	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())
	// idempotent
	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable(&order.Order{}))
	assert.True(t, migrator.HasTable(&order.OrderItem{}))
	assert.True(t, migrator.HasTable("order_status_history"))
	assert.NoError(t, wrapped.Health(context.Background()))

	require.NoError(t, m.DropAllTables())
	assert.False(t, migrator.HasTable(&order.Order{}))
}
