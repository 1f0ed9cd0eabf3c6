package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nuber/nuber/internal/metrics"
)

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	testCases := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantCode   string
	}{
		{name: "not found", handler: NotFound, wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "method not allowed", handler: MethodNotAllowed, wantStatus: http.StatusMethodNotAllowed, wantCode: "METHOD_NOT_ALLOWED"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.handler(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", ct)
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("expected code %s, got %s", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	rec := metrics.NewInMemory()
	rec.ObserveGraphQLRequest(250*time.Millisecond, false)
	rec.ObserveGraphQLRequest(250*time.Millisecond, true)
	rec.IncPlaceUpdated()
	rec.IncPlaceMutationRejected("not_authorized")
	rec.IncVerificationSent(metrics.SendSuccess)

	w := httptest.NewRecorder()
	NewMetricsHandler(rec).Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		"nuber_graphql_requests_total 2\n",
		"nuber_graphql_errors_total 1\n",
		"nuber_graphql_duration_seconds_sum 0.500000\n",
		"nuber_places_updated_total 1\n",
		"nuber_place_mutations_rejected_total{reason=\"not_authorized\"} 1\n",
		"nuber_verification_emails_total{status=\"success\"} 1\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	w := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
