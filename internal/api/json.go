// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/accountd/accountd/internal/account"
)

// maxBodyBytes caps request bodies; every accepted payload is tiny.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // nothing to do once the status line is written
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps a flow error to a status code and a JSON error body.
// Server-side causes collapse to a generic message; details stay in the logs.
func writeError(w http.ResponseWriter, err error) int {
	status, msg := errorStatus(err)
	writeJSON(w, status, errorResponse{Error: msg})
	return status
}

// errorStatus maps the account error taxonomy to HTTP.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, account.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, account.ErrDuplicateEmail):
		return http.StatusBadRequest, "an account with this email already exists"
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid email or password"
	case errors.Is(err, account.ErrInactiveAccount):
		return http.StatusBadRequest, "account is not verified"
	case errors.Is(err, account.ErrInvalidToken):
		return http.StatusBadRequest, "token is invalid or expired"
	case errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, account.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads the request body into v. A false return means the request
// was malformed and an error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is not valid JSON"})
		return false
	}
	return true
}
