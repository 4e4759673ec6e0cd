package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

// InventoryRow is one joined (product, stock) view row for a store.
type InventoryRow struct {
	StoreID       string          `json:"store_id"`
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	StockLevel    int             `json:"stock_level"`
	MinThreshold  int             `json:"min_threshold"`
	LastUpdatedBy string          `json:"last_updated_by"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}

// Repository manages persistence for stock records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, storeID, productID string, delta int, actor string, ts time.Time) (newLevel int, applied bool, err error)
	Find(ctx context.Context, storeID, productID string) (*models.StockRecord, error)
	ListByStore(ctx context.Context, storeID string) ([]InventoryRow, error)
	ListBelowThreshold(ctx context.Context, storeID string) ([]InventoryRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ApplyDelta runs the single guarded UPDATE that keeps stock math atomic: the
// level, the actor stamp and the timestamp change together, and only when the
// resulting level stays non-negative. Concurrent deltas on the same row
// serialize on the row lock; zero rows back means the guard (or the key)
// did not match.
func (r *repository) ApplyDelta(ctx context.Context, storeID, productID string, delta int, actor string, ts time.Time) (int, bool, error) {
	var levels []int
	res := r.db.WithContext(ctx).Raw(`
		UPDATE stock_records
		SET stock_level = stock_level + ?,
			last_updated_by = ?,
			last_updated_at = ?
		WHERE store_id = ? AND product_id = ? AND stock_level + ? >= 0
		RETURNING stock_level
	`, delta, actor, ts, storeID, productID, delta).Scan(&levels)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if len(levels) == 0 {
		return 0, false, nil
	}
	return levels[0], true, nil
}

func (r *repository) Find(ctx context.Context, storeID, productID string) (*models.StockRecord, error) {
	var record models.StockRecord
	if err := r.db.WithContext(ctx).
		First(&record, "store_id = ? AND product_id = ?", storeID, productID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

const inventoryRowQuery = `
SELECT sr.store_id,
       sr.product_id,
       p.name,
       p.category,
       p.price,
       p.supplier_id,
       sr.stock_level,
       sr.min_threshold,
       sr.last_updated_by,
       sr.last_updated_at
FROM stock_records sr
JOIN products p ON p.id = sr.product_id
WHERE sr.store_id = ?
`

func (r *repository) ListByStore(ctx context.Context, storeID string) ([]InventoryRow, error) {
	var rows []InventoryRow
	if err := r.db.WithContext(ctx).
		Raw(inventoryRowQuery+"ORDER BY sr.created_at ASC, sr.product_id ASC", storeID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListBelowThreshold(ctx context.Context, storeID string) ([]InventoryRow, error) {
	var rows []InventoryRow
	if err := r.db.WithContext(ctx).
		Raw(inventoryRowQuery+"AND sr.stock_level < sr.min_threshold ORDER BY sr.created_at ASC, sr.product_id ASC", storeID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
