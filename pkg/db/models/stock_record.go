package models

import "time"

// StockRecord holds the authoritative stock level for one (store, product)
// pair. The composite primary key enforces the one-record-per-pair invariant;
// stock_level carries a CHECK (>= 0) in the migration as a backstop to the
// service-level guard.
type StockRecord struct {
	StoreID       string    `gorm:"column:store_id;primaryKey" json:"store_id"`
	ProductID     string    `gorm:"column:product_id;primaryKey" json:"product_id"`
	StockLevel    int       `gorm:"column:stock_level;not null;default:0" json:"stock_level"`
	MinThreshold  int       `gorm:"column:min_threshold;not null;default:0" json:"min_threshold"`
	LastUpdatedBy string    `gorm:"column:last_updated_by;not null" json:"last_updated_by"`
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null" json:"last_updated_at"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (StockRecord) TableName() string {
	return "stock_records"
}
