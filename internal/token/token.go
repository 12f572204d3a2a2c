// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package token issues and verifies signed, purpose-tagged, expiring tokens.
//
// A token is a self-contained HS256 JWT carrying a subject, a purpose tag,
// and an expiry. It is never persisted; validity depends only on signature,
// expiry, and the purpose expected by the consuming operation. Verification
// is stateless and safe for unlimited concurrent calls.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// Purpose restricts which operation may consume a token.
type Purpose string

// Token purposes. Access tokens prove a prior login; verify and reset tokens
// authorize a single out-of-band flow and are short-lived.
const (
	PurposeAccess Purpose = "access"
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

// Default validity windows per purpose; overridable via Config.
const (
	DefaultAccessTTL = 24 * time.Hour
	DefaultVerifyTTL = 48 * time.Hour
	DefaultResetTTL  = time.Hour
)

// ErrInvalid is returned when a token fails signature, expiry, shape, or
// purpose checks. Callers get no further detail; the causes are deliberately
// indistinguishable.
var ErrInvalid = errors.New("invalid token")

// Config holds the signing secret and per-purpose validity windows.
// The secret is loaded once at process start and never rotated within a run.
type Config struct {
	Secret    string
	AccessTTL time.Duration
	VerifyTTL time.Duration
	ResetTTL  time.Duration
}

// Service issues and verifies tokens. It is purely functional given the
// secret: no mutable state, safe for concurrent use.
type Service struct {
	secret []byte
	ttls   map[Purpose]time.Duration
}

// claims is the JWT payload: registered claims plus the purpose tag.
type claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// NewService creates a token Service from config. The secret is required;
// zero TTLs fall back to the per-purpose defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, oops.Code("TOKEN_SECRET_MISSING").Errorf("signing secret is required")
	}

	ttls := map[Purpose]time.Duration{
		PurposeAccess: cfg.AccessTTL,
		PurposeVerify: cfg.VerifyTTL,
		PurposeReset:  cfg.ResetTTL,
	}
	if ttls[PurposeAccess] <= 0 {
		ttls[PurposeAccess] = DefaultAccessTTL
	}
	if ttls[PurposeVerify] <= 0 {
		ttls[PurposeVerify] = DefaultVerifyTTL
	}
	if ttls[PurposeReset] <= 0 {
		ttls[PurposeReset] = DefaultResetTTL
	}

	return &Service{
		secret: []byte(cfg.Secret),
		ttls:   ttls,
	}, nil
}

// TTL returns the validity window for a purpose.
func (s *Service) TTL(purpose Purpose) time.Duration {
	return s.ttls[purpose]
}

// Issue signs a token for the subject with the purpose's validity window.
func (s *Service) Issue(subject string, purpose Purpose) (string, error) {
	if subject == "" {
		return "", oops.Code("TOKEN_EMPTY_SUBJECT").Errorf("token subject cannot be empty")
	}
	ttl, ok := s.ttls[purpose]
	if !ok {
		return "", oops.Code("TOKEN_UNKNOWN_PURPOSE").
			With("purpose", string(purpose)).
			Errorf("unknown token purpose")
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks signature, expiry, and purpose, returning the subject.
// Any failure wraps ErrInvalid; Verify never panics on malformed input.
// This is the single validation gate shared by the verify-email and
// reset-password flows.
func (s *Service) Verify(tokenString string, purpose Purpose) (string, error) {
	if tokenString == "" {
		return "", oops.Code("TOKEN_INVALID").Wrapf(ErrInvalid, "token cannot be empty")
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", oops.Code("TOKEN_INVALID").Wrapf(ErrInvalid, "token rejected: %v", err)
	}
	if !parsed.Valid {
		return "", oops.Code("TOKEN_INVALID").Wrapf(ErrInvalid, "token rejected")
	}
	if c.Purpose != purpose {
		return "", oops.Code("TOKEN_PURPOSE_MISMATCH").
			With("expected", string(purpose)).
			Wrapf(ErrInvalid, "token purpose mismatch")
	}
	if c.Subject == "" {
		return "", oops.Code("TOKEN_INVALID").Wrapf(ErrInvalid, "token has no subject")
	}

	return c.Subject, nil
}
