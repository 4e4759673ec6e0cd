package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
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
	saleEvents := `
CREATE TABLE IF NOT EXISTS sale_events (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  occurred_at DATETIME NOT NULL,
  recorded_by TEXT NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

	for _, ddl := range []string{products, saleEvents} {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

func newSalesService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.NewRetrier(config.DBConfig{RetryAttempts: 1, RetryBaseWait: time.Millisecond}),
	)
	require.NoError(t, err)
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, id string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, conn.Create(&models.Product{
		ID:        id,
		Name:      "Product " + id,
		Category:  "snacks",
		Price:     decimal.NewFromFloat(2.50),
		CreatedBy: "seed",
		CreatedAt: now,
		UpdatedBy: "seed",
		UpdatedAt: now,
	}).Error)
}

func TestRecordPersistsSaleEvent(t *testing.T) {
	conn := setupSalesTestDB(t)
	seedProduct(t, conn, "P100")
	svc := newSalesService(t, conn)

	ts := time.Date(2026, 3, 14, 16, 30, 0, 0, time.UTC)
	event, err := svc.Record(context.Background(), RecordInput{
		StoreID:   "S001",
		ProductID: "P100",
		Quantity:  3,
		Actor:     "register-2",
		Timestamp: ts,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "register-2", event.RecordedBy)
	// occurred_at defaults to the request timestamp
	assert.True(t, event.OccurredAt.Equal(ts))

	var count int64
	require.NoError(t, conn.Model(&models.SaleEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRecordRejectsNonPositiveQuantity(t *testing.T) {
	conn := setupSalesTestDB(t)
	seedProduct(t, conn, "P100")
	svc := newSalesService(t, conn)

	for _, qty := range []int{0, -4} {
		_, err := svc.Record(context.Background(), RecordInput{
			StoreID:   "S001",
			ProductID: "P100",
			Quantity:  qty,
			Actor:     "register-2",
			Timestamp: time.Now().UTC(),
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	}
}

func TestRecordUnknownProductIsNotFound(t *testing.T) {
	conn := setupSalesTestDB(t)
	svc := newSalesService(t, conn)

	_, err := svc.Record(context.Background(), RecordInput{
		StoreID:   "S001",
		ProductID: "GHOST",
		Quantity:  1,
		Actor:     "register-2",
		Timestamp: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestListByStorePaginatesNewestFirst(t *testing.T) {
	conn := setupSalesTestDB(t)
	seedProduct(t, conn, "P100")
	svc := newSalesService(t, conn)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		_, err := svc.Record(context.Background(), RecordInput{
			StoreID:    "S001",
			ProductID:  "P100",
			Quantity:   1 + i,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
			Actor:      "register-2",
			Timestamp:  time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	first, err := svc.ListByStore(context.Background(), "S001", pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Events, 3)
	require.NotEmpty(t, first.NextCursor)
	assert.Equal(t, 7, first.Events[0].Quantity) // newest first

	second, err := svc.ListByStore(context.Background(), "S001", pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Events, 3)
	require.NotEmpty(t, second.NextCursor)
	assert.Equal(t, 4, second.Events[0].Quantity)

	third, err := svc.ListByStore(context.Background(), "S001", pagination.Params{Limit: 3, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Events, 1)
	assert.Empty(t, third.NextCursor)
	assert.Equal(t, 1, third.Events[0].Quantity)

	// no event appears twice across pages
	seen := map[uuid.UUID]bool{}
	for _, page := range []*Page{first, second, third} {
		for _, event := range page.Events {
			assert.False(t, seen[event.ID], "event %s repeated", event.ID)
			seen[event.ID] = true
		}
	}
}

func TestListByStoreScopesToStore(t *testing.T) {
	conn := setupSalesTestDB(t)
	seedProduct(t, conn, "P100")
	svc := newSalesService(t, conn)

	for _, storeID := range []string{"S001", "S002"} {
		_, err := svc.Record(context.Background(), RecordInput{
			StoreID:   storeID,
			ProductID: "P100",
			Quantity:  2,
			Actor:     "register-2",
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	page, err := svc.ListByStore(context.Background(), "S001", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "S001", page.Events[0].StoreID)
}

func TestListByStoreRejectsBadCursor(t *testing.T) {
	conn := setupSalesTestDB(t)
	svc := newSalesService(t, conn)

	_, err := svc.ListByStore(context.Background(), "S001", pagination.Params{Cursor: "garbage!!"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
