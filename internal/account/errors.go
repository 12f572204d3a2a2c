// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "errors"

// Sentinel errors for the authentication flows. Services wrap these with
// samber/oops codes and context; callers match with errors.Is.
var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateEmail is returned when registering an email that is
	// already taken. The unique index on accounts.email is the final
	// arbiter under concurrent registration.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInactiveAccount is returned when an operation requires a verified
	// account and the account has not completed email verification.
	ErrInactiveAccount = errors.New("account is not active")

	// ErrInvalidToken is returned when a verification or reset token fails
	// signature, expiry, or purpose checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated is returned when an access token cannot be
	// resolved to an account.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrValidation is wrapped by all input validation failures.
	ErrValidation = errors.New("invalid input")
)
