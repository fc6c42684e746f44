package venue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"predict-bot/internal/config"
)

func testVenueConfig(baseURL string) config.VenueConfig {
	return config.VenueConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		Timeout:   5 * time.Second,
		RateLimit: 100,
		RateBurst: 100,
	}
}

func TestClient_PlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}

		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MarketID != "m-1" || req.Outcome != OutcomeYes || req.Amount != 5.0 {
			t.Errorf("unexpected order request: %+v", req)
		}

		json.NewEncoder(w).Encode(OrderResponse{OrderID: "ord-1", Status: "pending"})
	}))
	defer srv.Close()

	c := NewClient(testVenueConfig(srv.URL), nil)
	resp, err := c.PlaceOrder(context.Background(), OrderRequest{
		MarketID: "m-1",
		Side:     SideBuy,
		Outcome:  OutcomeYes,
		Amount:   5.0,
		Type:     OrderTypeMarket,
	})
	if err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if resp.OrderID != "ord-1" || resp.Status != "pending" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_GetOrderEscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/ord%2F1" && r.URL.EscapedPath() != "/orders/ord%2F1" {
			t.Errorf("expected escaped order id in path, got %q", r.URL.EscapedPath())
		}
		json.NewEncoder(w).Encode(OrderResponse{OrderID: "ord/1", Status: "matched", FilledAmount: 5, Fee: 0.05})
	}))
	defer srv.Close()

	c := NewClient(testVenueConfig(srv.URL), nil)
	resp, err := c.GetOrder(context.Background(), "ord/1")
	if err != nil {
		t.Fatalf("GetOrder returned error: %v", err)
	}
	if resp.Status != "matched" || resp.FilledAmount != 5 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestClient_NonSuccessBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"insufficient balance"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(testVenueConfig(srv.URL), nil)
	_, err := c.PlaceOrder(context.Background(), OrderRequest{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", apiErr.StatusCode)
	}
	if apiErr.Transient() {
		t.Errorf("4xx must not be transient")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Errorf("nil error must not be retryable")
	}
	if !IsRetryable(&APIError{StatusCode: 503}) {
		t.Errorf("5xx should be retryable")
	}
	if !IsRetryable(&APIError{StatusCode: http.StatusTooManyRequests}) {
		t.Errorf("429 should be retryable")
	}
	if IsRetryable(&APIError{StatusCode: 400}) {
		t.Errorf("400 must not be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Errorf("context cancellation must not be retryable")
	}
}

func TestIsRetryable_NetworkError(t *testing.T) {
	// 不可达端口触发连接错误。
	cfg := testVenueConfig("http://127.0.0.1:1")
	cfg.Timeout = 500 * time.Millisecond
	c := NewClient(cfg, nil)

	_, err := c.PlaceOrder(context.Background(), OrderRequest{})
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if !IsRetryable(err) {
		t.Errorf("expected network error to be retryable, got %v", err)
	}
}
