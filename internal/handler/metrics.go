package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/nuber/nuber/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, _ *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "nuber_graphql_requests_total %d\n", snap.GraphQLRequests)
	writeMetric(w, "nuber_graphql_errors_total %d\n", snap.GraphQLErrors)
	writeMetric(w, "nuber_graphql_duration_seconds_count %d\n", snap.GraphQLRequests)
	writeMetric(w, "nuber_graphql_duration_seconds_sum %.6f\n", float64(snap.GraphQLDurationTotalNs)/1e9)

	writeMetric(w, "nuber_places_created_total %d\n", snap.PlacesCreated)
	writeMetric(w, "nuber_places_updated_total %d\n", snap.PlacesUpdated)
	writeMetric(w, "nuber_places_deleted_total %d\n", snap.PlacesDeleted)
	writeMetric(w, "nuber_place_mutations_rejected_total{reason=\"not_found\"} %d\n", snap.PlacesNotFound)
	writeMetric(w, "nuber_place_mutations_rejected_total{reason=\"not_authorized\"} %d\n", snap.PlacesNotAuthorized)

	writeMetric(w, "nuber_verification_emails_total{status=\"success\"} %d\n", snap.VerificationsSent)
	writeMetric(w, "nuber_verification_emails_total{status=\"failed\"} %d\n", snap.VerificationsFailed)
	writeMetric(w, "nuber_verification_emails_total{status=\"rate_limited\"} %d\n", snap.VerificationsRateLimited)
	writeMetric(w, "nuber_verifications_completed_total %d\n", snap.VerificationsCompleted)
}

func writeMetric(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
