// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/account/accounttest"
	"github.com/accountd/accountd/internal/notify"
	"github.com/accountd/accountd/internal/token"
)

// newFlowService wires a Service from real collaborators (argon2id hasher,
// JWT token service, HTML renderer) over in-memory storage and a capturing
// gateway, so the full register/verify/login/reset lifecycle can run.
func newFlowService(t *testing.T) (*account.Service, *accounttest.Repository, *accounttest.CaptureGateway) {
	t.Helper()

	repo := accounttest.NewRepository()
	gateway := accounttest.NewCaptureGateway()

	tokens, err := token.NewService(token.Config{Secret: "flow-test-secret-0123456789abcdef"})
	require.NoError(t, err)

	renderer, err := notify.NewRenderer("https://app.example.com")
	require.NoError(t, err)

	svc, err := account.NewService(repo, account.NewArgon2idHasher(), tokens, renderer, gateway)
	require.NoError(t, err)
	return svc, repo, gateway
}

// emailToken extracts the token query parameter from a captured email body.
func emailToken(t *testing.T, html string) string {
	t.Helper()
	_, after, found := strings.Cut(html, "token=")
	require.True(t, found, "email carries no token link: %s", html)
	tok, _, found := strings.Cut(after, `"`)
	require.True(t, found)
	return tok
}

func TestFlows_RegisterVerifyLoginIntrospect(t *testing.T) {
	ctx := context.Background()
	svc, _, gateway := newFlowService(t)

	in := account.RegisterInput{
		Name:     "Ann Example",
		Email:    "ann@x.com",
		Phone:    "+15551234567",
		Password: "correct horse battery",
	}

	pub, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pub.ID)

	// Login before verification is refused.
	_, err = svc.Login(ctx, in.Email, in.Password)
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrInactiveAccount)

	// The verification email carries a working token.
	sent, ok := gateway.Last()
	require.True(t, ok, "registration must dispatch a verification email")
	assert.Equal(t, in.Email, sent.To)
	require.NoError(t, svc.VerifyEmail(ctx, emailToken(t, sent.HTML)))

	pair, err := svc.Login(ctx, in.Email, in.Password)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)

	me, err := svc.CurrentAccount(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pub.ID, me.ID)
	assert.Equal(t, in.Email, me.Email)
}

func TestFlows_PasswordReset(t *testing.T) {
	ctx := context.Background()
	svc, _, gateway := newFlowService(t)

	in := account.RegisterInput{
		Name:     "Ann Example",
		Email:    "ann@x.com",
		Phone:    "+15551234567",
		Password: "original password",
	}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	sent, ok := gateway.Last()
	require.True(t, ok)
	require.NoError(t, svc.VerifyEmail(ctx, emailToken(t, sent.HTML)))

	require.NoError(t, svc.RequestPasswordReset(ctx, in.Email))
	resetMail, ok := gateway.Last()
	require.True(t, ok)
	assert.Equal(t, "Reset your password", resetMail.Subject)

	resetToken := emailToken(t, resetMail.HTML)
	require.NoError(t, svc.ResetPassword(ctx, resetToken, "brand new password"))

	// Old password no longer works; the new one does.
	_, err = svc.Login(ctx, in.Email, "original password")
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.Login(ctx, in.Email, "brand new password")
	require.NoError(t, err)
}

func TestFlows_TokensAreNotInterchangeable(t *testing.T) {
	ctx := context.Background()
	svc, _, gateway := newFlowService(t)

	in := account.RegisterInput{
		Name:     "Ann Example",
		Email:    "ann@x.com",
		Phone:    "+15551234567",
		Password: "original password",
	}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	sent, ok := gateway.Last()
	require.True(t, ok)
	verifyToken := emailToken(t, sent.HTML)

	// A verify token cannot reset a password, nor act as an access token.
	err = svc.ResetPassword(ctx, verifyToken, "another password")
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrInvalidToken)

	_, err = svc.CurrentAccount(ctx, verifyToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrUnauthenticated)

	require.NoError(t, svc.VerifyEmail(ctx, verifyToken))
}

func TestFlows_DuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService(t)

	in := account.RegisterInput{
		Name:     "Ann Example",
		Email:    "ann@x.com",
		Phone:    "+15551234567",
		Password: "original password",
	}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	in.Name = "Impostor Ann"
	_, err = svc.Register(ctx, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}
