package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/sales"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

type recordSaleRequest struct {
	StoreID    string     `json:"store_id" validate:"required"`
	ProductID  string     `json:"product_id" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,gt=0"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// RecordSale appends one sale event. OccurredAt is optional; it lets callers
// backfill sales that happened before they were reported.
func RecordSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var body recordSaleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, body.StoreID)
		}

		input := sales.RecordInput{
			StoreID:   body.StoreID,
			ProductID: body.ProductID,
			Quantity:  body.Quantity,
			Actor:     middleware.ActorFromContext(ctx),
			Timestamp: time.Now().UTC(),
		}
		if body.OccurredAt != nil {
			input.OccurredAt = body.OccurredAt.UTC()
		}

		event, err := svc.Record(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// ListSales pages through a store's sales feed, newest first.
func ListSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		storeID := chi.URLParam(r, "store_id")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID)
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListByStore(ctx, storeID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
