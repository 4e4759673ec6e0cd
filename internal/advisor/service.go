package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/sales"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/oracle"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

const (
	// DefaultHorizonDays is used when the caller does not ask for a horizon.
	DefaultHorizonDays = 7
	// MaxHorizonDays caps how far out a forecast can be requested.
	MaxHorizonDays = 90

	salesHistoryLimit = 100
)

// Service exposes the advisory read paths backed by the recommendation
// oracle. The oracle is untrusted: malformed answers never propagate, they
// degrade to empty results with a warning.
type Service interface {
	RestockAdvice(ctx context.Context, storeID string) ([]oracle.Suggestion, error)
	DemandForecast(ctx context.Context, storeID string, horizonDays int) ([]oracle.ForecastRow, error)
}

type inventoryReader interface {
	ReadInventory(ctx context.Context, storeID string) ([]ledger.InventoryRow, error)
	ListBelowThreshold(ctx context.Context, storeID string) ([]ledger.InventoryRow, error)
}

type salesReader interface {
	ListByStore(ctx context.Context, storeID string, params pagination.Params) (*sales.Page, error)
}

type oracleClient interface {
	RestockAdvice(ctx context.Context, storeID string, items []oracle.LowStockItem) ([]oracle.Suggestion, error)
	DemandForecast(ctx context.Context, storeID string, horizonDays int, history []oracle.SaleSummary) ([]oracle.ForecastRow, error)
}

type service struct {
	inventory inventoryReader
	sales     salesReader
	oracle    oracleClient
	logg      *logger.Logger
}

// NewService wires the advisor with its inventory, sales and oracle sources.
func NewService(inventory inventoryReader, salesHistory salesReader, client oracleClient, logg *logger.Logger) (Service, error) {
	if inventory == nil {
		return nil, fmt.Errorf("inventory reader required")
	}
	if salesHistory == nil {
		return nil, fmt.Errorf("sales reader required")
	}
	if client == nil {
		return nil, fmt.Errorf("oracle client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{inventory: inventory, sales: salesHistory, oracle: client, logg: logg}, nil
}

// RestockAdvice sends the store's below-threshold snapshot to the oracle and
// returns its validated suggestions. An unknown store is NOT_FOUND; a store
// with nothing below threshold short-circuits to an empty answer without
// calling the oracle at all.
func (s *service) RestockAdvice(ctx context.Context, storeID string) ([]oracle.Suggestion, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	// existence check rides on the inventory read path
	if _, err := s.inventory.ReadInventory(ctx, storeID); err != nil {
		return nil, err
	}

	low, err := s.inventory.ListBelowThreshold(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []oracle.Suggestion{}, nil
	}

	items := make([]oracle.LowStockItem, 0, len(low))
	for _, row := range low {
		items = append(items, oracle.LowStockItem{
			ProductID:    row.ProductID,
			StockLevel:   row.StockLevel,
			MinThreshold: row.MinThreshold,
		})
	}

	suggestions, err := s.oracle.RestockAdvice(ctx, storeID, items)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeOracleContract) {
			s.logg.Warn(s.logg.WithStoreID(ctx, storeID), fmt.Sprintf("restock advice degraded to empty: %v", err))
			return []oracle.Suggestion{}, nil
		}
		return nil, err
	}
	return suggestions, nil
}

// DemandForecast asks the oracle for per-product demand over horizonDays,
// seeded with recent sales history.
func (s *service) DemandForecast(ctx context.Context, storeID string, horizonDays int) ([]oracle.ForecastRow, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if horizonDays == 0 {
		horizonDays = DefaultHorizonDays
	}
	if horizonDays < 1 || horizonDays > MaxHorizonDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("horizon_days must be between 1 and %d", MaxHorizonDays))
	}

	if _, err := s.inventory.ReadInventory(ctx, storeID); err != nil {
		return nil, err
	}

	page, err := s.sales.ListByStore(ctx, storeID, pagination.Params{Limit: salesHistoryLimit})
	if err != nil {
		return nil, err
	}

	history := make([]oracle.SaleSummary, 0, len(page.Events))
	for _, event := range page.Events {
		history = append(history, oracle.SaleSummary{
			ProductID:  event.ProductID,
			Quantity:   event.Quantity,
			OccurredAt: event.OccurredAt,
		})
	}

	rows, err := s.oracle.DemandForecast(ctx, storeID, horizonDays, history)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeOracleContract) {
			s.logg.Warn(s.logg.WithStoreID(ctx, storeID), fmt.Sprintf("forecast degraded to empty: %v", err))
			return []oracle.ForecastRow{}, nil
		}
		return nil, err
	}
	return rows, nil
}
