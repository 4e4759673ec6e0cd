package sales

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

// Repository manages persistence for sale events. The table is append-only;
// there is deliberately no update or delete method here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.SaleEvent) error
	ProductExists(ctx context.Context, productID string) (bool, error)
	ListByStore(ctx context.Context, storeID string, limit int, cursor *pagination.Cursor) ([]models.SaleEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.SaleEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ProductExists(ctx context.Context, productID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByStore walks the sales feed newest first. The cursor pins the scan to
// (occurred_at, id) so pages stay stable while new events land.
func (r *repository) ListByStore(ctx context.Context, storeID string, limit int, cursor *pagination.Cursor) ([]models.SaleEvent, error) {
	query := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(occurred_at < ?) OR (occurred_at = ? AND id < ?)",
			cursor.OccurredAt, cursor.OccurredAt, cursor.ID,
		)
	}

	var events []models.SaleEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
