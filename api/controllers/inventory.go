package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/alerts"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

// GetInventory serves the full inventory view for one store.
func GetInventory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		storeID := chi.URLParam(r, "store_id")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID)
		}

		rows, err := svc.ReadInventory(ctx, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"store_id": storeID,
			"items":    rows,
		})
	}
}

// quantity is the signed stock delta: positive restocks, negative sells.
// A pointer keeps an explicit zero distinguishable from a missing field.
type updateInventoryRequest struct {
	StoreID   string `json:"store_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"required"`
}

// UpdateInventory applies one stock delta. The audit timestamp is taken here,
// at the boundary, and threaded down explicitly.
func UpdateInventory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var body updateInventoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, body.StoreID)
		}

		newLevel, err := svc.ApplyDelta(ctx, ledger.ApplyDeltaInput{
			StoreID:   body.StoreID,
			ProductID: body.ProductID,
			Delta:     *body.Quantity,
			Actor:     middleware.ActorFromContext(ctx),
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"store_id":        body.StoreID,
			"product_id":      body.ProductID,
			"new_stock_level": newLevel,
		})
	}
}

// GetInventoryAlerts grades the store's below-threshold rows. An empty list
// is a healthy answer, not an error.
func GetInventoryAlerts(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		storeID := chi.URLParam(r, "store_id")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID)
		}

		rows, err := svc.ListBelowThreshold(ctx, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"store_id": storeID,
			"alerts":   alerts.Evaluate(rows),
		})
	}
}
