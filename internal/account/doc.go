// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package account provides the account and authentication domain for accountd.
//
// # Domain Types
//
// Account is the central identity record. Accounts should be created with
// NewAccount, which validates name, email, and phone before constructing the
// record. Direct struct initialization bypasses validation and may create
// invalid state. Repository implementations receive pre-validated types.
//
// # Services
//
// Service coordinates the authentication flows: registration, login, email
// verification, password-reset request, password reset, and access-token
// introspection. It is created with NewService (or NewServiceWithLogger),
// which validates dependencies.
//
// Password hashing lives behind the PasswordHasher interface, token issuance
// and validation behind TokenIssuer, persistence behind AccountRepository,
// and out-of-band delivery behind NotificationGateway. Email delivery is
// fire-and-forget: a gateway failure is logged but never surfaced to the
// caller of Register or RequestPasswordReset.
package account
