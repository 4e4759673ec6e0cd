package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	"github.com/angelmondragon/stockledger-backend/api/validators"
	"github.com/angelmondragon/stockledger-backend/internal/advisor"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

// GetRestockAdvice asks the recommendation oracle what to reorder for the
// store's below-threshold items.
func GetRestockAdvice(svc advisor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "advisor service unavailable"))
			return
		}

		storeID := chi.URLParam(r, "store_id")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID)
		}

		suggestions, err := svc.RestockAdvice(ctx, storeID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"store_id":    storeID,
			"suggestions": suggestions,
		})
	}
}

// GetForecast returns the oracle's per-product demand forecast. horizon_days
// is optional and bounded; zero means the service default.
func GetForecast(svc advisor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "advisor service unavailable"))
			return
		}

		storeID := chi.URLParam(r, "store_id")
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStoreID(ctx, storeID)
		}

		horizonDays, err := validators.ParseQueryInt(r, "horizon_days", 0, 1, advisor.MaxHorizonDays)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.DemandForecast(ctx, storeID, horizonDays)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"store_id": storeID,
			"forecast": rows,
		})
	}
}
