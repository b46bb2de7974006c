package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps client-side and upstream errors onto facade responses.
func handleError(w http.ResponseWriter, err error) {
	var apiErr *api.Error

	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
	case errors.Is(err, session.ErrForbidden):
		respondError(w, http.StatusForbidden, "permission_denied", "Access forbidden")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrInvalidCustomer):
		respondError(w, http.StatusBadRequest, "invalid_customer", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "upstream request timed out")
	case errors.As(err, &apiErr):
		handleUpstreamError(w, apiErr)
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func handleUpstreamError(w http.ResponseWriter, err *api.Error) {
	var httpStatus int
	var code string

	switch {
	case err.StatusCode == 0:
		httpStatus = http.StatusBadGateway
		code = "upstream_unavailable"
	case err.StatusCode == http.StatusBadRequest:
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case err.StatusCode == http.StatusUnauthorized:
		httpStatus = http.StatusUnauthorized
		code = "unauthenticated"
	case err.StatusCode == http.StatusForbidden:
		httpStatus = http.StatusForbidden
		code = "permission_denied"
	case err.StatusCode == http.StatusNotFound:
		httpStatus = http.StatusNotFound
		code = "not_found"
	case err.StatusCode == http.StatusConflict:
		httpStatus = http.StatusConflict
		code = "already_exists"
	case err.StatusCode == http.StatusTooManyRequests:
		httpStatus = http.StatusTooManyRequests
		code = "rate_limit_exceeded"
	case err.StatusCode >= http.StatusInternalServerError:
		httpStatus = http.StatusBadGateway
		code = "upstream_error"
	default:
		httpStatus = err.StatusCode
		code = "upstream_error"
	}

	respondError(w, httpStatus, code, err.Message)
}
