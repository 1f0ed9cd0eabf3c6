// Package handler provides the plain HTTP endpoints next to /graphql.
package handler

import (
	"encoding/json"
	"net/http"
)

// errorResponse matches the envelope written by the middleware package.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NotFound handles 404 responses.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: errorBody{
		Code:    "NOT_FOUND",
		Message: "resource not found",
	}})
}

// MethodNotAllowed handles 405 responses.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: errorBody{
		Code:    "METHOD_NOT_ALLOWED",
		Message: "method not allowed",
	}})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
