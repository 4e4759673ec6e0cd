package models

import (
	"time"

	"github.com/google/uuid"
)

// SaleEvent is an append-only fact. No repository exposes an update or
// delete path for this table.
type SaleEvent struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StoreID    string    `gorm:"column:store_id;not null" json:"store_id"`
	ProductID  string    `gorm:"column:product_id;not null" json:"product_id"`
	Quantity   int       `gorm:"column:quantity;not null" json:"quantity"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null" json:"occurred_at"`
	RecordedBy string    `gorm:"column:recorded_by;not null" json:"recorded_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SaleEvent) TableName() string {
	return "sale_events"
}
