// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/token"
	"github.com/accountd/accountd/pkg/errutil"
)

// TokenIssuer mints and validates purpose-tagged tokens for the flows.
// Implemented by token.Service.
type TokenIssuer interface {
	Issue(subject string, purpose token.Purpose) (string, error)
	Verify(tokenString string, purpose token.Purpose) (string, error)
}

// dummyPasswordHash is verified against when a login email is unknown, so
// response time does not reveal whether the account exists. It is not a real
// credential and never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// TokenType is the scheme clients present access tokens with.
const TokenType = "bearer"

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// TokenPair is the login result.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service orchestrates the authentication flows: registration, login, email
// verification, password reset, and access-token introspection. Each
// operation runs to completion within one request context; the only shared
// state is the repository and the token secret, both read-mostly.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	renderer EmailRenderer
	gateway  NotificationGateway
	log      *slog.Logger
}

// NewService creates a Service, validating that all dependencies are set.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer, renderer EmailRenderer, gateway NotificationGateway) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, renderer, gateway, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer, renderer EmailRenderer, gateway NotificationGateway, log *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("token issuer is required")
	}
	if renderer == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("email renderer is required")
	}
	if gateway == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("notification gateway is required")
	}
	if log == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		renderer: renderer,
		gateway:  gateway,
		log:      log,
	}, nil
}

// Register creates an inactive account and dispatches a verification email.
// Returns ErrDuplicateEmail if the email is taken; the unique index on the
// store is the final arbiter under concurrent registration, so Create may
// also report the duplicate after the pre-check passes.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*PublicAccount, error) {
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	_, err := s.accounts.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, oops.Code("ACCOUNT_DUPLICATE_EMAIL").
			With("email", in.Email).
			Wrap(ErrDuplicateEmail)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	acct, err := NewAccount(in.Name, in.Email, in.Phone, hash)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost the race after the pre-check; same clean error.
			return nil, oops.Code("ACCOUNT_DUPLICATE_EMAIL").
				With("email", in.Email).
				Wrap(ErrDuplicateEmail)
		}
		return nil, oops.Code("REGISTER_FAILED").
			With("operation", "Create").
			Wrap(err)
	}

	verifyToken, err := s.tokens.Issue(acct.Email, token.PurposeVerify)
	if err != nil {
		// The account exists; verification can be re-requested later.
		errutil.LogError(s.log, "issue verification token failed", err)
	} else {
		s.sendVerificationEmail(ctx, acct.Email, verifyToken)
	}

	pub := acct.Public()
	return &pub, nil
}

// Login authenticates by email and password and issues an access token.
// Unknown email and wrong password return the same ErrInvalidCredentials;
// an unverified account returns ErrInactiveAccount.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	acct, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Verify against a dummy hash when the account is unknown so lookup
	// outcome does not change response time.
	targetHash := dummyPasswordHash
	exists := false
	if lookupErr == nil {
		targetHash = acct.PasswordHash
		exists = true
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return TokenPair{}, oops.Code("LOGIN_FAILED").
			With("operation", "GetByEmail").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		// Malformed stored hash; treat as mismatch rather than a server error.
		errutil.LogError(s.log, "stored password hash is malformed", verifyErr)
	}
	if !exists || !valid {
		return TokenPair{}, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if !acct.Active {
		return TokenPair{}, oops.Code("AUTH_INACTIVE_ACCOUNT").Wrap(ErrInactiveAccount)
	}

	// Transparent rehash for accounts carrying an older hash scheme.
	// Best effort; login succeeds regardless.
	if s.hasher.NeedsRehash(acct.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			_ = s.accounts.UpdatePassword(ctx, acct.ID, newHash) //nolint:errcheck // Best effort
		}
	}

	accessToken, err := s.tokens.Issue(strconv.FormatInt(acct.ID, 10), token.PurposeAccess)
	if err != nil {
		return TokenPair{}, oops.Code("LOGIN_FAILED").
			With("operation", "Issue").
			Wrap(err)
	}

	return TokenPair{AccessToken: accessToken, TokenType: TokenType}, nil
}

// VerifyEmail consumes a verify-purpose token and activates the account.
// Re-verifying an already active account is a no-op, not an error.
func (s *Service) VerifyEmail(ctx context.Context, tokenString string) error {
	email, err := s.tokens.Verify(tokenString, token.PurposeVerify)
	if err != nil {
		return oops.Code("AUTH_INVALID_TOKEN").Wrapf(ErrInvalidToken, "verification token rejected")
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").Wrap(ErrNotFound)
		}
		return oops.Code("VERIFY_EMAIL_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	if acct.Active {
		return nil
	}

	acct.Active = true
	acct.UpdatedAt = time.Now()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return oops.Code("VERIFY_EMAIL_FAILED").
			With("operation", "Update").
			Wrap(err)
	}
	return nil
}

// RequestPasswordReset issues a reset token for the email and dispatches it.
// Returns ErrNotFound for an unknown email; the differing response reveals
// account existence, kept to match the established contract.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").Wrap(ErrNotFound)
		}
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	resetToken, err := s.tokens.Issue(acct.Email, token.PurposeReset)
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "Issue").
			Wrap(err)
	}

	msg, err := s.renderer.PasswordResetEmail(acct.Email, resetToken)
	if err != nil {
		return oops.Code("RESET_REQUEST_FAILED").
			With("operation", "PasswordResetEmail").
			Wrap(err)
	}
	if err := s.gateway.Send(ctx, acct.Email, msg.Subject, msg.HTML); err != nil {
		// Delivery is best effort; the collaborator owns retries.
		errutil.LogError(s.log, "password reset email dispatch failed", err)
	}
	return nil
}

// ResetPassword consumes a reset-purpose token and stores a new password.
// The account must already be active.
func (s *Service) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	email, err := s.tokens.Verify(tokenString, token.PurposeReset)
	if err != nil {
		return oops.Code("AUTH_INVALID_TOKEN").Wrapf(ErrInvalidToken, "reset token rejected")
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("ACCOUNT_NOT_FOUND").Wrap(ErrNotFound)
		}
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "GetByEmail").
			Wrap(err)
	}

	if !acct.Active {
		return oops.Code("AUTH_INACTIVE_ACCOUNT").Wrap(ErrInactiveAccount)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	if err := s.accounts.UpdatePassword(ctx, acct.ID, hash); err != nil {
		return oops.Code("RESET_PASSWORD_FAILED").
			With("operation", "UpdatePassword").
			Wrap(err)
	}
	return nil
}

// CurrentAccount resolves an access token to the account's public view.
// Any failure to resolve yields ErrUnauthenticated.
func (s *Service) CurrentAccount(ctx context.Context, accessToken string) (*PublicAccount, error) {
	subject, err := s.tokens.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		return nil, oops.Code("AUTH_UNAUTHENTICATED").Wrapf(ErrUnauthenticated, "access token rejected")
	}

	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, oops.Code("AUTH_UNAUTHENTICATED").Wrapf(ErrUnauthenticated, "access token subject is not an account id")
	}

	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNAUTHENTICATED").Wrapf(ErrUnauthenticated, "access token references no account")
		}
		return nil, oops.Code("INTROSPECT_FAILED").
			With("operation", "GetByID").
			Wrap(err)
	}

	pub := acct.Public()
	return &pub, nil
}

// sendVerificationEmail renders and dispatches the verification email.
// Best effort: failures are logged, registration succeeds regardless.
func (s *Service) sendVerificationEmail(ctx context.Context, email, verifyToken string) {
	msg, err := s.renderer.VerificationEmail(email, verifyToken)
	if err != nil {
		errutil.LogError(s.log, "render verification email failed", err)
		return
	}
	if err := s.gateway.Send(ctx, email, msg.Subject, msg.HTML); err != nil {
		errutil.LogError(s.log, "verification email dispatch failed", err)
	}
}
