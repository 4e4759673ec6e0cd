package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

const (
	restockPath               = "v1/restock-advice"
	forecastPath              = "v1/forecast"
	errorBodyReadLimit  int64 = 1024
	dateLayout                = "2006-01-02"
	defaultClientTimeout      = 10 * time.Second
)

// Client talks to the external recommendation oracle. The oracle is a black
// box: we send it inventory snapshots or sales history and validate the shape
// of whatever comes back before letting it into the system.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the oracle client for the given endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimSpace(baseURL)
	if trimmedURL == "" {
		return nil, fmt.Errorf("oracle base URL is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmedURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// LowStockItem is one below-threshold row from the inventory snapshot.
type LowStockItem struct {
	ProductID    string `json:"product_id"`
	StockLevel   int    `json:"stock_level"`
	MinThreshold int    `json:"min_threshold"`
}

// Suggestion is a validated restock recommendation.
type Suggestion struct {
	ProductID         string `json:"product_id"`
	SuggestedQuantity int    `json:"suggested_quantity"`
	Rationale         string `json:"rationale,omitempty"`
}

// SaleSummary is one aggregated sales row sent with forecast requests.
type SaleSummary struct {
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ForecastRow is a validated demand prediction for one product and day.
type ForecastRow struct {
	Date              string  `json:"date"`
	ProductID         string  `json:"product_id"`
	PredictedQuantity float64 `json:"predicted_quantity"`
	Confidence        float64 `json:"confidence"`
}

// RestockAdvice requests restock suggestions for the given snapshot. Malformed
// responses surface as ORACLE_CONTRACT_VIOLATION; callers decide the fallback.
func (c *Client) RestockAdvice(ctx context.Context, storeID string, items []LowStockItem) ([]Suggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "oracle client not configured")
	}

	payload := struct {
		StoreID string         `json:"store_id"`
		Items   []LowStockItem `json:"items"`
	}{StoreID: storeID, Items: items}

	var apiResp struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := c.post(ctx, restockPath, payload, &apiResp); err != nil {
		return nil, err
	}

	if err := validateSuggestions(apiResp.Suggestions); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOracleContract, err, "restock advice failed shape validation")
	}

	return apiResp.Suggestions, nil
}

// DemandForecast requests per-product demand predictions over horizonDays.
func (c *Client) DemandForecast(ctx context.Context, storeID string, horizonDays int, sales []SaleSummary) ([]ForecastRow, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "oracle client not configured")
	}

	payload := struct {
		StoreID     string        `json:"store_id"`
		HorizonDays int           `json:"horizon_days"`
		Sales       []SaleSummary `json:"sales"`
	}{StoreID: storeID, HorizonDays: horizonDays, Sales: sales}

	var apiResp struct {
		Forecast []ForecastRow `json:"forecast"`
	}
	if err := c.post(ctx, forecastPath, payload, &apiResp); err != nil {
		return nil, err
	}

	if err := validateForecast(apiResp.Forecast); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeOracleContract, err, "forecast failed shape validation")
	}

	return apiResp.Forecast, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal oracle request")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build oracle request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeOracleContract, err, "execute oracle request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeOracleContract,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"oracle request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeOracleContract, err, "decode oracle response")
	}
	return nil
}

// validateSuggestions accumulates every shape problem instead of stopping at
// the first, so the warn log names everything that was wrong.
func validateSuggestions(suggestions []Suggestion) error {
	var errs error
	for i, s := range suggestions {
		if strings.TrimSpace(s.ProductID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("suggestion[%d]: product_id is empty", i))
		}
		if s.SuggestedQuantity <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("suggestion[%d]: suggested_quantity %d is not positive", i, s.SuggestedQuantity))
		}
	}
	return errs
}

func validateForecast(rows []ForecastRow) error {
	var errs error
	for i, row := range rows {
		if strings.TrimSpace(row.ProductID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("forecast[%d]: product_id is empty", i))
		}
		if _, err := time.Parse(dateLayout, row.Date); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("forecast[%d]: date %q is not YYYY-MM-DD", i, row.Date))
		}
		if row.PredictedQuantity < 0 {
			errs = multierr.Append(errs, fmt.Errorf("forecast[%d]: predicted_quantity %f is negative", i, row.PredictedQuantity))
		}
		if row.Confidence < 0 || row.Confidence > 1 {
			errs = multierr.Append(errs, fmt.Errorf("forecast[%d]: confidence %f outside [0,1]", i, row.Confidence))
		}
	}
	return errs
}
