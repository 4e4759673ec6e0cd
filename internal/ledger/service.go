package ledger

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
)

// Service defines the single write path for stock levels plus the read views
// built on top of it.
type Service interface {
	ApplyDelta(ctx context.Context, input ApplyDeltaInput) (int, error)
	ReadInventory(ctx context.Context, storeID string) ([]InventoryRow, error)
	ListBelowThreshold(ctx context.Context, storeID string) ([]InventoryRow, error)
}

// ApplyDeltaInput carries one stock adjustment. Timestamp comes from the
// caller so audit stamps are never taken ambiently.
type ApplyDeltaInput struct {
	StoreID   string
	ProductID string
	Delta     int
	Actor     string
	Timestamp time.Time
}

type service struct {
	repo    Repository
	retrier db.Retrier
	stock   *metrics.StockMetrics
}

// NewService wires the stock ledger service with the provided repository.
func NewService(repo Repository, retrier db.Retrier, stock *metrics.StockMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &service{repo: repo, retrier: retrier, stock: stock}, nil
}

// ApplyDelta adjusts one (store, product) level and returns the new value.
// A zero delta is a legal no-op: the record's existence is checked but
// nothing is written and the audit stamp keeps its previous values.
func (s *service) ApplyDelta(ctx context.Context, input ApplyDeltaInput) (int, error) {
	if err := validateKey(input.StoreID, input.ProductID); err != nil {
		return 0, err
	}
	if strings.TrimSpace(input.Actor) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.Timestamp.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "timestamp is required")
	}

	if input.Delta == 0 {
		record, err := s.findRecord(ctx, input.StoreID, input.ProductID)
		if err != nil {
			return 0, err
		}
		s.stock.IncApplied("noop")
		return record.StockLevel, nil
	}

	var (
		newLevel int
		applied  bool
	)
	err := s.retrier.Do(ctx, "apply stock delta", func(ctx context.Context) error {
		var innerErr error
		newLevel, applied, innerErr = s.repo.ApplyDelta(ctx, input.StoreID, input.ProductID, input.Delta, input.Actor, input.Timestamp)
		return innerErr
	})
	if err != nil {
		return 0, err
	}

	if !applied {
		// The guard rejected the write or the record does not exist;
		// a follow-up read tells the two apart.
		record, err := s.findRecord(ctx, input.StoreID, input.ProductID)
		if err != nil {
			s.stock.IncRejected("not_found")
			return 0, err
		}
		s.stock.IncRejected("insufficient_stock")
		return 0, pkgerrors.New(pkgerrors.CodeInvalidOperation,
			fmt.Sprintf("stock for product %q cannot go below zero", input.ProductID)).
			WithDetails(map[string]any{
				"store_id":    input.StoreID,
				"product_id":  input.ProductID,
				"stock_level": record.StockLevel,
				"delta":       input.Delta,
			})
	}

	if input.Delta > 0 {
		s.stock.IncApplied("increase")
	} else {
		s.stock.IncApplied("decrease")
	}
	return newLevel, nil
}

// ReadInventory lists the full inventory for a store in insertion order.
// An unknown or empty store reads as NOT_FOUND.
func (s *service) ReadInventory(ctx context.Context, storeID string) ([]InventoryRow, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	var rows []InventoryRow
	err := s.retrier.Do(ctx, "read inventory", func(ctx context.Context) error {
		var innerErr error
		rows, innerErr = s.repo.ListByStore(ctx, storeID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("no inventory found for store %q", storeID))
	}
	return rows, nil
}

// ListBelowThreshold returns the rows with stock strictly under their
// threshold. Empty is a valid answer here, unlike ReadInventory.
func (s *service) ListBelowThreshold(ctx context.Context, storeID string) ([]InventoryRow, error) {
	if strings.TrimSpace(storeID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	var rows []InventoryRow
	err := s.retrier.Do(ctx, "list below threshold", func(ctx context.Context) error {
		var innerErr error
		rows, innerErr = s.repo.ListBelowThreshold(ctx, storeID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *service) findRecord(ctx context.Context, storeID, productID string) (*models.StockRecord, error) {
	var found *models.StockRecord
	err := s.retrier.Do(ctx, "find stock record", func(ctx context.Context) error {
		var innerErr error
		found, innerErr = s.repo.Find(ctx, storeID, productID)
		return innerErr
	})
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("no stock record for product %q at store %q", productID, storeID))
		}
		return nil, err
	}
	return found, nil
}

func validateKey(storeID, productID string) error {
	if strings.TrimSpace(storeID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if strings.TrimSpace(productID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}
