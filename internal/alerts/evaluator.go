package alerts

import (
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
)

// Severity grades how urgent a restock is.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// Alert is one low-stock warning derived from an inventory row.
type Alert struct {
	StoreID        string   `json:"store_id"`
	ProductID      string   `json:"product_id"`
	ProductName    string   `json:"product_name"`
	StockLevel     int      `json:"stock_level"`
	MinThreshold   int      `json:"min_threshold"`
	Severity       Severity `json:"severity"`
	SuggestedOrder int      `json:"suggested_order"`
}

// Evaluate grades a below-threshold snapshot. It is pure: no clock, no
// storage, and the output preserves the input order. Severity is HIGH when
// the level has fallen under half the threshold, MEDIUM otherwise; the
// suggested order tops the level back up to threshold plus a buffer of 10.
func Evaluate(rows []ledger.InventoryRow) []Alert {
	alerts := make([]Alert, 0, len(rows))
	for _, row := range rows {
		severity := SeverityMedium
		if float64(row.StockLevel) < float64(row.MinThreshold)/2 {
			severity = SeverityHigh
		}
		alerts = append(alerts, Alert{
			StoreID:        row.StoreID,
			ProductID:      row.ProductID,
			ProductName:    row.Name,
			StockLevel:     row.StockLevel,
			MinThreshold:   row.MinThreshold,
			Severity:       severity,
			SuggestedOrder: row.MinThreshold - row.StockLevel + 10,
		})
	}
	return alerts
}
