package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

type storeAllocationRequest struct {
	StoreID      string `json:"store_id" validate:"required"`
	InitialLevel int    `json:"initial_level" validate:"gte=0"`
	MinThreshold int    `json:"min_threshold" validate:"gte=0"`
}

type provisionProductRequest struct {
	ProductID  string                   `json:"product_id" validate:"required"`
	Name       string                   `json:"name" validate:"required"`
	Category   string                   `json:"category" validate:"required"`
	Price      decimal.Decimal          `json:"price"`
	SupplierID string                   `json:"supplier_id" validate:"required"`
	Stores     []storeAllocationRequest `json:"stores" validate:"required,min=1,dive"`
}

// ProvisionProduct creates a product and its initial per-store stock records
// in a single transaction.
func ProvisionProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body provisionProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stores := make([]catalog.StoreAllocation, 0, len(body.Stores))
		for _, allocation := range body.Stores {
			stores = append(stores, catalog.StoreAllocation{
				StoreID:      allocation.StoreID,
				InitialLevel: allocation.InitialLevel,
				MinThreshold: allocation.MinThreshold,
			})
		}

		ctx := r.Context()
		product, err := svc.Provision(ctx, catalog.ProvisionInput{
			ProductID:  body.ProductID,
			Name:       body.Name,
			Category:   body.Category,
			Price:      body.Price,
			SupplierID: body.SupplierID,
			Stores:     stores,
			Actor:      middleware.ActorFromContext(ctx),
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// store_id is accepted for wire compatibility: prices are catalog-wide, so
// the field only scopes the request log.
type updatePriceRequest struct {
	StoreID   string          `json:"store_id"`
	ProductID string          `json:"product_id" validate:"required"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// UpdatePrice changes a product's unit price and stamps who did it.
func UpdatePrice(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body updatePriceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil && body.StoreID != "" {
			ctx = logg.WithStoreID(ctx, body.StoreID)
		}
		product, err := svc.UpdatePrice(ctx, catalog.UpdatePriceInput{
			ProductID: body.ProductID,
			NewPrice:  body.NewPrice,
			Actor:     middleware.ActorFromContext(ctx),
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
