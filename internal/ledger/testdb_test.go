package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

// setupLedgerTestDB opens a private in-memory database. MaxOpenConns(1) keeps
// the shared-cache db alive and serializes concurrent access the way a row
// lock would on Postgres.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  price NUMERIC NOT NULL,
  supplier_id TEXT,
  created_by TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  updated_by TEXT NOT NULL,
  updated_at DATETIME NOT NULL
);`
	stockRecords := `
CREATE TABLE IF NOT EXISTS stock_records (
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  stock_level INTEGER NOT NULL DEFAULT 0 CHECK (stock_level >= 0),
  min_threshold INTEGER NOT NULL DEFAULT 0,
  last_updated_by TEXT NOT NULL,
  last_updated_at DATETIME NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (store_id, product_id)
);`

	for _, ddl := range []string{products, stockRecords} {
		require.NoError(t, conn.Exec(ddl).Error)
	}

	return conn
}

func mustCreateTestProduct(t *testing.T, tx *gorm.DB, id string) *models.Product {
	t.Helper()
	now := time.Now().UTC()
	product := &models.Product{
		ID:        id,
		Name:      "Test Product " + id,
		Category:  "beverages",
		Price:     decimal.NewFromFloat(4.50),
		CreatedBy: "seed",
		CreatedAt: now,
		UpdatedBy: "seed",
		UpdatedAt: now,
	}
	require.NoError(t, tx.Create(product).Error)
	return product
}

func mustCreateStockRecord(t *testing.T, tx *gorm.DB, storeID, productID string, level, threshold int) *models.StockRecord {
	t.Helper()
	return mustCreateStockRecordAt(t, tx, storeID, productID, level, threshold, time.Time{})
}

func mustCreateStockRecordAt(t *testing.T, tx *gorm.DB, storeID, productID string, level, threshold int, createdAt time.Time) *models.StockRecord {
	t.Helper()
	record := &models.StockRecord{
		StoreID:       storeID,
		ProductID:     productID,
		StockLevel:    level,
		MinThreshold:  threshold,
		LastUpdatedBy: "seed",
		LastUpdatedAt: time.Now().UTC().Add(-time.Hour),
		CreatedAt:     createdAt,
	}
	require.NoError(t, tx.Create(record).Error)
	return record
}
