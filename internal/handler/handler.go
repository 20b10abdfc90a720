// Package handler adapts the household service to JSON over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/hearth/internal/household"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// responder renders service results and errors. In development the wrapped
// cause of an error is added to the body as "details".
type responder struct {
	logger      *slog.Logger
	development bool
}

func newResponder(logger *slog.Logger, development bool) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger.With("component", "http"), development: development}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusFor(k household.Kind) int {
	switch k {
	case household.KindUnauthenticated:
		return http.StatusUnauthorized
	case household.KindForbidden:
		return http.StatusForbidden
	case household.KindNotFound:
		return http.StatusNotFound
	case household.KindInvalidInput, household.KindInvalidOrExpiredCode:
		return http.StatusBadRequest
	case household.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := household.KindOf(err)
	status := statusFor(kind)

	body := errorBody{Error: kind.String(), Message: "Internal server error"}
	var herr *household.Error
	if errors.As(err, &herr) {
		body.Message = herr.Message
	}
	if status >= 500 {
		rs.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if rs.development && status >= 500 {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

func (rs responder) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: household.KindInvalidInput.String(), Message: message})
}

// decode reads a JSON body into v. It writes the 400 itself and reports
// false when the body is unusable.
func (rs responder) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		rs.badRequest(w, "Invalid JSON body")
		return false
	}
	return true
}
