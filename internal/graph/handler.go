package graph

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/graph-gophers/graphql-go"

	"github.com/nuber/nuber/internal/metrics"
)

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Handler executes GraphQL documents posted as JSON.
type Handler struct {
	schema  *graphql.Schema
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewHandler creates a Handler for schema.
func NewHandler(schema *graphql.Schema, logger *slog.Logger, recorder metrics.Recorder) *Handler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{schema: schema, logger: logger, metrics: recorder}
}

// ServeHTTP handles POST /graphql.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON GraphQL request")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query is required")
		return
	}

	start := time.Now()
	resp := h.schema.Exec(r.Context(), req.Query, req.OperationName, req.Variables)
	h.metrics.ObserveGraphQLRequest(time.Since(start), len(resp.Errors) > 0)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode graphql response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
