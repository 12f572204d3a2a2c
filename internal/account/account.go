// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import (
	"context"
	"net/mail"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Input validation constraints, matching the registration contract.
const (
	MinNameLength = 3
	MaxNameLength = 50

	MinPasswordLength = 8
	MaxPasswordLength = 100
)

// phoneRegex matches E.164-style phone numbers: a leading plus, a non-zero
// country code digit, and 6 to 14 further digits.
var phoneRegex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Account represents a user account. Active is false until the owner
// completes email verification; the reset flow mutates PasswordHash.
// Accounts are never deleted by the core flows.
type Account struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicAccount is the projection of an Account safe to return to callers.
// It never carries the password hash.
type PublicAccount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Public returns the caller-visible projection of the account.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Phone: a.Phone,
	}
}

// NewAccount creates a validated, inactive Account. The password hash must
// already be computed; plaintext passwords never reach this constructor.
// The ID is zero until the repository assigns one on Create.
func NewAccount(name, email, phone, passwordHash string) (*Account, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_EMPTY_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Active:       false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateName validates a display name against length rules.
func ValidateName(name string) error {
	if len(name) < MinNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("min", MinNameLength).
			Wrapf(ErrValidation, "name must be at least %d characters", MinNameLength)
	}
	if len(name) > MaxNameLength {
		return oops.Code("ACCOUNT_INVALID_NAME").
			With("max", MaxNameLength).
			Wrapf(ErrValidation, "name must be at most %d characters", MaxNameLength)
	}
	return nil
}

// ValidateEmail validates an email address. Addresses are stored and matched
// case-sensitively, exactly as given.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			Wrapf(ErrValidation, "email cannot be empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("ACCOUNT_INVALID_EMAIL").
			Wrapf(ErrValidation, "email address is malformed")
	}
	return nil
}

// ValidatePhone validates a phone number in E.164 form (e.g. +15551234567).
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return oops.Code("ACCOUNT_INVALID_PHONE").
			Wrapf(ErrValidation, "phone must be in E.164 form, e.g. +15551234567")
	}
	return nil
}

// ValidatePassword validates a plaintext password against length rules.
// Called before hashing; the plaintext is never stored or logged.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Wrapf(ErrValidation, "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return oops.Code("ACCOUNT_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Wrapf(ErrValidation, "password must be at most %d characters", MaxPasswordLength)
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account and fills in the assigned ID.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// GetByEmail retrieves an account by exact email match.
	// Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update persists mutated fields (name, phone, active, password hash).
	Update(ctx context.Context, account *Account) error

	// UpdatePassword updates only the password hash for an account.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
