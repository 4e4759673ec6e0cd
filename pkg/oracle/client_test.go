package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://oracle.test", "test-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClientRestockAdviceRequest(t *testing.T) {
	const expectedURL = "http://oracle.test/v1/restock-advice"
	respBody := `{"suggestions":[{"product_id":"P100","suggested_quantity":25,"rationale":"below half threshold"}]}`

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["store_id"] != "S001" {
			t.Fatalf("unexpected store_id %q", payload["store_id"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)
	result, err := client.RestockAdvice(context.Background(), "S001", []LowStockItem{
		{ProductID: "P100", StockLevel: 5, MinThreshold: 20},
	})
	if err != nil {
		t.Fatalf("restock advice: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("X-Api-Key") != "test-key" {
		t.Fatalf("api key header missing")
	}
	if len(result) != 1 || result[0].ProductID != "P100" || result[0].SuggestedQuantity != 25 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientRestockAdviceRejectsMalformedSuggestions(t *testing.T) {
	respBody := `{"suggestions":[{"product_id":"","suggested_quantity":-5}]}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)
	_, err := client.RestockAdvice(context.Background(), "S001", nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeOracleContract) {
		t.Fatalf("expected ORACLE_CONTRACT_VIOLATION, got %v", err)
	}
	// both shape problems should be named
	if !strings.Contains(err.Error(), "ORACLE_CONTRACT_VIOLATION") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestClientForecastRequest(t *testing.T) {
	const expectedURL = "http://oracle.test/v1/forecast"
	respBody := `{"forecast":[{"date":"2026-03-15","product_id":"P100","predicted_quantity":12.5,"confidence":0.8}]}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["horizon_days"] != float64(7) {
			t.Fatalf("unexpected horizon_days %v", payload["horizon_days"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)
	result, err := client.DemandForecast(context.Background(), "S001", 7, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if len(result) != 1 || result[0].Date != "2026-03-15" || result[0].Confidence != 0.8 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientForecastRejectsOutOfRangeRows(t *testing.T) {
	respBody := `{"forecast":[{"date":"03/15/2026","product_id":"P100","predicted_quantity":-1,"confidence":1.7}]}`

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(respBody)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)
	_, err := client.DemandForecast(context.Background(), "S001", 7, nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeOracleContract) {
		t.Fatalf("expected ORACLE_CONTRACT_VIOLATION, got %v", err)
	}
}

func TestClientSurfacesUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader(`{"error":"model overloaded"}`)),
			Header:     http.Header{},
		}, nil
	})

	client := newTestClient(t, rt)
	_, err := client.RestockAdvice(context.Background(), "S001", nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeOracleContract) {
		t.Fatalf("expected ORACLE_CONTRACT_VIOLATION, got %v", err)
	}
	if !strings.Contains(err.Error(), "oracle request failed") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
