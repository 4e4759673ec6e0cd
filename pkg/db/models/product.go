package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row shared by every store. Only the price and the
// update stamp change after provisioning.
type Product struct {
	ID         string          `gorm:"column:id;primaryKey" json:"id"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	Category   string          `gorm:"column:category;not null" json:"category"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	SupplierID string          `gorm:"column:supplier_id" json:"supplier_id"`
	CreatedBy  string          `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt  time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedBy  string          `gorm:"column:updated_by;not null" json:"updated_by"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
