// Package handlers exposes the services over HTTP/JSON.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	svcErr "github.com/oggyb/mawaddah/internal/errors"
	"github.com/oggyb/mawaddah/internal/logger"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err with its public message only. 5xx causes are
// logged with the request's logger.
func writeError(w http.ResponseWriter, r *http.Request, fallback *slog.Logger, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context(), fallback).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"err", err,
		)
	}
	writeJSON(w, status, APIError{
		Code:    svcErr.Code(err),
		Message: svcErr.PublicMessage(err),
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, APIError{Code: "UNAUTHORIZED", Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, APIError{Code: "INVALID_REQUEST", Message: message})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}
