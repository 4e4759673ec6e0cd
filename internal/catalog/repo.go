package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
)

// Repository manages persistence for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	CreateStockRecord(ctx context.Context, record *models.StockRecord) error
	FindProduct(ctx context.Context, productID string) (*models.Product, error)
	UpdatePrice(ctx context.Context, productID string, price decimal.Decimal, actor string, ts time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) CreateStockRecord(ctx context.Context, record *models.StockRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdatePrice writes the price and the audit stamp in one statement.
func (r *repository) UpdatePrice(ctx context.Context, productID string, price decimal.Decimal, actor string, ts time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET price = ?,
			updated_by = ?,
			updated_at = ?
		WHERE id = ?
	`, price, actor, ts, productID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
