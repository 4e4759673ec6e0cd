package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/stockledger-backend/api/controllers"
	"github.com/angelmondragon/stockledger-backend/api/middleware"
	"github.com/angelmondragon/stockledger-backend/internal/advisor"
	"github.com/angelmondragon/stockledger-backend/internal/catalog"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/sales"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/stockledger-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	ledgerService ledger.Service,
	catalogService catalog.Service,
	salesService sales.Service,
	advisorService advisor.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Actor(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger(redisClient)))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// the *pkgredis.Client satisfies IdempotencyStore and WriteLimiter; a nil
	// client makes both middlewares a pass-through
	var idempotencyStore pkgredis.IdempotencyStore
	var writeLimiter middleware.WriteLimiter
	if redisClient != nil {
		idempotencyStore = redisClient
		writeLimiter = redisClient
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))

		r.Get("/inventory/{store_id}", controllers.GetInventory(ledgerService, logg))
		r.Get("/inventory-alerts/{store_id}", controllers.GetInventoryAlerts(ledgerService, logg))
		r.Get("/sales/{store_id}", controllers.ListSales(salesService, logg))
		r.Get("/restock-advice/{store_id}", controllers.GetRestockAdvice(advisorService, logg))
		r.Get("/forecast/{store_id}", controllers.GetForecast(advisorService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(logg))
			r.Use(middleware.RateLimit(writeLimiter, cfg.RateLimit.WriteLimit, cfg.RateLimit.WriteWindow, logg))
			r.Post("/inventory/update", controllers.UpdateInventory(ledgerService, logg))
			r.Post("/inventory/provision", controllers.ProvisionProduct(catalogService, logg))
			r.Post("/update-price", controllers.UpdatePrice(catalogService, logg))
			r.Post("/sales", controllers.RecordSale(salesService, logg))
		})
	})

	return r
}

func redisPinger(client *pkgredis.Client) pkgredis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
