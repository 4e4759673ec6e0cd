package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockledger-backend/internal/catalog"
	"github.com/angelmondragon/stockledger-backend/internal/ledger"
	"github.com/angelmondragon/stockledger-backend/internal/sales"
	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db/models"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/metrics"
	"github.com/angelmondragon/stockledger-backend/pkg/oracle"
	"github.com/angelmondragon/stockledger-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubLedgerService struct{}

func (stubLedgerService) ApplyDelta(ctx context.Context, input ledger.ApplyDeltaInput) (int, error) {
	return 10, nil
}

func (stubLedgerService) ReadInventory(ctx context.Context, storeID string) ([]ledger.InventoryRow, error) {
	return []ledger.InventoryRow{}, nil
}

func (stubLedgerService) ListBelowThreshold(ctx context.Context, storeID string) ([]ledger.InventoryRow, error) {
	return []ledger.InventoryRow{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) Provision(ctx context.Context, input catalog.ProvisionInput) (*models.Product, error) {
	return &models.Product{ID: input.ProductID}, nil
}

func (stubCatalogService) UpdatePrice(ctx context.Context, input catalog.UpdatePriceInput) (*models.Product, error) {
	return &models.Product{ID: input.ProductID}, nil
}

type stubSalesService struct{}

func (stubSalesService) Record(ctx context.Context, input sales.RecordInput) (*models.SaleEvent, error) {
	return &models.SaleEvent{StoreID: input.StoreID}, nil
}

func (stubSalesService) ListByStore(ctx context.Context, storeID string, params pagination.Params) (*sales.Page, error) {
	return &sales.Page{Events: []models.SaleEvent{}}, nil
}

type stubAdvisorService struct{}

func (stubAdvisorService) RestockAdvice(ctx context.Context, storeID string) ([]oracle.Suggestion, error) {
	return []oracle.Suggestion{}, nil
}

func (stubAdvisorService) DemandForecast(ctx context.Context, storeID string, horizonDays int) ([]oracle.ForecastRow, error) {
	return []oracle.ForecastRow{}, nil
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
}

func newTestRouter(registry *prometheus.Registry) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.Disabled, Output: io.Discard})
	var registerer prometheus.Registerer
	if registry != nil {
		registerer = registry
	}
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		nil, // redis is optional
		registry,
		metrics.NewHTTPMetrics(registerer),
		stubLedgerService{},
		stubCatalogService{},
		stubSalesService{},
		stubAdvisorService{},
	)
}

func TestRouterServesHealth(t *testing.T) {
	router := newTestRouter(nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterServesMetricsWhenRegistryWired(t *testing.T) {
	router := newTestRouter(prometheus.NewRegistry())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterOmitsMetricsWithoutRegistry(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterRejectsAnonymousMutations(t *testing.T) {
	router := newTestRouter(nil)

	for _, route := range []struct {
		path string
		body string
	}{
		{"/inventory/update", `{"store_id":"S001","product_id":"P100","quantity":1}`},
		{"/inventory/provision", `{"product_id":"P1","name":"n","category":"c","price":"1.00","supplier_id":"s","stores":[{"store_id":"S001","initial_level":1,"min_threshold":1}]}`},
		{"/update-price", `{"product_id":"P1","new_price":"2.00"}`},
		{"/sales", `{"store_id":"S001","product_id":"P1","quantity":1}`},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, route.path, strings.NewReader(route.body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, route.path)
		assert.Contains(t, rec.Body.String(), "X-Actor header is required", route.path)
	}
}

func TestRouterAcceptsIdentifiedMutation(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/inventory/update",
		strings.NewReader(`{"store_id":"S001","product_id":"P100","quantity":1}`))
	req.Header.Set("X-Actor", "clerk-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new_stock_level":10`)
}

func TestRouterReadsAreOpenToAnonymous(t *testing.T) {
	router := newTestRouter(nil)

	for _, path := range []string{
		"/inventory/S001",
		"/inventory-alerts/S001",
		"/sales/S001",
		"/restock-advice/S001",
		"/forecast/S001",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterEchoesRequestID(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-42")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}
