// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package api exposes the account flows over a JSON HTTP boundary.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/observability"
)

// Handler serves the v1 account endpoints.
type Handler struct {
	svc     *account.Service
	log     *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates a Handler. metrics may be nil when the observability
// server is disabled.
func NewHandler(svc *account.Service, log *slog.Logger, metrics *observability.Metrics) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("API_INVALID_DEPS").Errorf("account service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log, metrics: metrics}, nil
}

// Routes returns the routed and instrumented HTTP handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/register", h.handleRegister)
	mux.HandleFunc("POST /v1/login", h.handleLogin)
	mux.HandleFunc("POST /v1/verify-email", h.handleVerifyEmail)
	mux.HandleFunc("POST /v1/password-recovery", h.handlePasswordRecovery)
	mux.HandleFunc("POST /v1/reset-password", h.handleResetPassword)
	mux.HandleFunc("GET /v1/me", h.handleMe)
	return h.withRequestLog(mux)
}

// record counts one boundary request for a flow.
func (h *Handler) record(flow string, status int) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case status >= 500:
		outcome = "server_error"
	case status >= 400:
		outcome = "client_error"
	}
	h.metrics.AuthRequestsTotal.WithLabelValues(flow, outcome).Inc()
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		h.record("register", http.StatusBadRequest)
		return
	}

	pub, err := h.svc.Register(r.Context(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.logFlowError(r, "register", err)
		h.record("register", writeError(w, err))
		return
	}

	if h.metrics != nil {
		h.metrics.AccountsCreatedTotal.Inc()
	}
	h.record("register", http.StatusCreated)
	writeJSON(w, http.StatusCreated, pub)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		h.record("login", http.StatusBadRequest)
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFlowError(r, "login", err)
		h.record("login", writeError(w, err))
		return
	}

	h.record("login", http.StatusOK)
	writeJSON(w, http.StatusOK, pair)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeJSON(w, r, &req) {
		h.record("verify_email", http.StatusBadRequest)
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Token); err != nil {
		h.logFlowError(r, "verify_email", err)
		h.record("verify_email", writeError(w, err))
		return
	}

	h.record("verify_email", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

type passwordRecoveryRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handlePasswordRecovery(w http.ResponseWriter, r *http.Request) {
	var req passwordRecoveryRequest
	if !decodeJSON(w, r, &req) {
		h.record("request_reset", http.StatusBadRequest)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logFlowError(r, "request_reset", err)
		h.record("request_reset", writeError(w, err))
		return
	}

	h.record("request_reset", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		h.record("reset_password", http.StatusBadRequest)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.logFlowError(r, "reset_password", err)
		h.record("reset_password", writeError(w, err))
		return
	}

	h.record("reset_password", http.StatusNoContent)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		h.record("current_account", writeError(w, account.ErrUnauthenticated))
		return
	}

	pub, err := h.svc.CurrentAccount(r.Context(), token)
	if err != nil {
		h.logFlowError(r, "current_account", err)
		h.record("current_account", writeError(w, err))
		return
	}

	h.record("current_account", http.StatusOK)
	writeJSON(w, http.StatusOK, pub)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme comparison is case-insensitive per RFC 9110.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// logFlowError records a failed flow. Client-caused failures log at debug;
// everything else is an error worth operator attention.
func (h *Handler) logFlowError(r *http.Request, flow string, err error) {
	status, _ := errorStatus(err)
	log := h.log.With(
		slog.String("flow", flow),
		slog.String("request_id", requestIDFrom(r.Context())),
	)
	if status < 500 {
		log.DebugContext(r.Context(), "flow rejected", slog.Any("error", err))
		return
	}
	log.ErrorContext(r.Context(), "flow failed", slog.Any("error", err))
}
