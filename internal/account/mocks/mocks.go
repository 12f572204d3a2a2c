// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package mocks provides testify mocks for the account package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/token"
)

// MockAccountRepository is a mock implementation of account.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a mock tied to the test lifecycle.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, acct *account.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockPasswordHasher is a mock implementation of account.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a mock tied to the test lifecycle.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) NeedsRehash(hash string) bool {
	args := m.Called(hash)
	return args.Bool(0)
}

// MockTokenIssuer is a mock implementation of account.TokenIssuer.
type MockTokenIssuer struct {
	mock.Mock
}

// NewMockTokenIssuer creates a mock tied to the test lifecycle.
func NewMockTokenIssuer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTokenIssuer) Issue(subject string, purpose token.Purpose) (string, error) {
	args := m.Called(subject, purpose)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) Verify(tokenString string, purpose token.Purpose) (string, error) {
	args := m.Called(tokenString, purpose)
	return args.String(0), args.Error(1)
}

// MockEmailRenderer is a mock implementation of account.EmailRenderer.
type MockEmailRenderer struct {
	mock.Mock
}

// NewMockEmailRenderer creates a mock tied to the test lifecycle.
func NewMockEmailRenderer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEmailRenderer {
	m := &MockEmailRenderer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEmailRenderer) VerificationEmail(email, token string) (account.EmailMessage, error) {
	args := m.Called(email, token)
	return args.Get(0).(account.EmailMessage), args.Error(1)
}

func (m *MockEmailRenderer) PasswordResetEmail(email, token string) (account.EmailMessage, error) {
	args := m.Called(email, token)
	return args.Get(0).(account.EmailMessage), args.Error(1)
}

// MockNotificationGateway is a mock implementation of account.NotificationGateway.
type MockNotificationGateway struct {
	mock.Mock
}

// NewMockNotificationGateway creates a mock tied to the test lifecycle.
func NewMockNotificationGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNotificationGateway {
	m := &MockNotificationGateway{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotificationGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// Compile-time interface checks.
var (
	_ account.AccountRepository   = (*MockAccountRepository)(nil)
	_ account.PasswordHasher      = (*MockPasswordHasher)(nil)
	_ account.TokenIssuer         = (*MockTokenIssuer)(nil)
	_ account.EmailRenderer       = (*MockEmailRenderer)(nil)
	_ account.NotificationGateway = (*MockNotificationGateway)(nil)
)
