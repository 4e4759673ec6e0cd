package catalog

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

// Service defines catalog provisioning and price maintenance.
type Service interface {
	Provision(ctx context.Context, input ProvisionInput) (*models.Product, error)
	UpdatePrice(ctx context.Context, input UpdatePriceInput) (*models.Product, error)
}

// StoreAllocation seeds one store's stock record during provisioning.
type StoreAllocation struct {
	StoreID      string
	InitialLevel int
	MinThreshold int
}

// ProvisionInput creates a product plus its initial stock records in one
// transaction.
type ProvisionInput struct {
	ProductID  string
	Name       string
	Category   string
	Price      decimal.Decimal
	SupplierID string
	Stores     []StoreAllocation
	Actor      string
	Timestamp  time.Time
}

// UpdatePriceInput changes a product's unit price.
type UpdatePriceInput struct {
	ProductID string
	NewPrice  decimal.Decimal
	Actor     string
	Timestamp time.Time
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	retrier db.Retrier
}

// NewService wires the catalog service with its repository and transaction
// runner.
func NewService(repo Repository, tx txRunner, retrier db.Retrier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, retrier: retrier}, nil
}

func (s *service) Provision(ctx context.Context, input ProvisionInput) (*models.Product, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if strings.TrimSpace(input.Actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.Timestamp.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp is required")
	}
	for _, allocation := range input.Stores {
		if strings.TrimSpace(allocation.StoreID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required for every allocation")
		}
		if allocation.InitialLevel < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("initial level for store %q cannot be negative", allocation.StoreID))
		}
		if allocation.MinThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("min threshold for store %q cannot be negative", allocation.StoreID))
		}
	}

	product := &models.Product{
		ID:         input.ProductID,
		Name:       input.Name,
		Category:   input.Category,
		Price:      input.Price,
		SupplierID: input.SupplierID,
		CreatedBy:  input.Actor,
		CreatedAt:  input.Timestamp,
		UpdatedBy:  input.Actor,
		UpdatedAt:  input.Timestamp,
	}

	// the whole transaction retries as a unit so a connection drop mid-tx
	// never leaves a half-provisioned product behind
	err := s.retrier.Do(ctx, "provision product", func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			if err := repo.CreateProduct(ctx, product); err != nil {
				if db.IsUniqueViolation(err, "") {
					return pkgerrors.New(pkgerrors.CodeInvalidOperation,
						fmt.Sprintf("product %q already exists", input.ProductID))
				}
				return err
			}

			for _, allocation := range input.Stores {
				record := &models.StockRecord{
					StoreID:       allocation.StoreID,
					ProductID:     input.ProductID,
					StockLevel:    allocation.InitialLevel,
					MinThreshold:  allocation.MinThreshold,
					LastUpdatedBy: input.Actor,
					LastUpdatedAt: input.Timestamp,
				}
				if err := repo.CreateStockRecord(ctx, record); err != nil {
					if db.IsUniqueViolation(err, "") {
						return pkgerrors.New(pkgerrors.CodeInvalidOperation,
							fmt.Sprintf("stock record for store %q already exists", allocation.StoreID))
					}
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) UpdatePrice(ctx context.Context, input UpdatePriceInput) (*models.Product, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.Actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if input.Timestamp.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp is required")
	}
	if !input.NewPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidOperation,
			fmt.Sprintf("price must be positive, got %s", input.NewPrice))
	}

	var rows int64
	err := s.retrier.Do(ctx, "update product price", func(ctx context.Context) error {
		var innerErr error
		rows, innerErr = s.repo.UpdatePrice(ctx, input.ProductID, input.NewPrice, input.Actor, input.Timestamp)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("product %q not found", input.ProductID))
	}

	var product *models.Product
	err = s.retrier.Do(ctx, "load product", func(ctx context.Context) error {
		var innerErr error
		product, innerErr = s.repo.FindProduct(ctx, input.ProductID)
		return innerErr
	})
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %q not found", input.ProductID))
		}
		return nil, err
	}
	return product, nil
}
