// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package accounttest provides in-memory test doubles for account storage
// and notification delivery, used by flow and handler tests that want real
// semantics without a database or mail server.
package accounttest

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// Repository is an in-memory account.AccountRepository. Safe for concurrent
// use; IDs are assigned sequentially starting at 1.
type Repository struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]*account.Account
	byEmail  map[string]int64
	failNext error
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		nextID:  1,
		byID:    make(map[int64]*account.Account),
		byEmail: make(map[string]int64),
	}
}

// FailNext makes the next repository call return err, then clears itself.
// Useful for exercising storage error paths.
func (r *Repository) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

func (r *Repository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *Repository) Create(_ context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, exists := r.byEmail[acct.Email]; exists {
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
			With("email", acct.Email).
			Wrap(account.ErrDuplicateEmail)
	}
	acct.ID = r.nextID
	r.nextID++
	stored := *acct
	r.byID[acct.ID] = &stored
	r.byEmail[acct.Email] = acct.ID
	return nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	stored, ok := r.byID[id]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(account.ErrNotFound)
	}
	acct := *stored
	return &acct, nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	id, ok := r.byEmail[email]
	if !ok {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(account.ErrNotFound)
	}
	acct := *r.byID[id]
	return &acct, nil
}

func (r *Repository) Update(_ context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.byID[acct.ID]; !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", acct.ID).Wrap(account.ErrNotFound)
	}
	stored := *acct
	r.byID[acct.ID] = &stored
	return nil
}

func (r *Repository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	stored, ok := r.byID[id]
	if !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").With("id", id).Wrap(account.ErrNotFound)
	}
	stored.PasswordHash = passwordHash
	stored.UpdatedAt = time.Now()
	return nil
}

// SentEmail records one delivery captured by CaptureGateway.
type SentEmail struct {
	To      string
	Subject string
	HTML    string
}

// CaptureGateway is an account.NotificationGateway that records every send.
type CaptureGateway struct {
	mu   sync.Mutex
	sent []SentEmail
	fail error
}

// NewCaptureGateway creates an empty capture gateway.
func NewCaptureGateway() *CaptureGateway {
	return &CaptureGateway{}
}

// Fail makes every subsequent Send return err. Pass nil to restore delivery.
func (g *CaptureGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

func (g *CaptureGateway) Send(_ context.Context, to, subject, htmlBody string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.sent = append(g.sent, SentEmail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

// Sent returns a copy of all captured deliveries.
func (g *CaptureGateway) Sent() []SentEmail {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentEmail, len(g.sent))
	copy(out, g.sent)
	return out
}

// Last returns the most recent delivery, or false when nothing was sent.
func (g *CaptureGateway) Last() (SentEmail, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return SentEmail{}, false
	}
	return g.sent[len(g.sent)-1], true
}

// Compile-time interface checks.
var (
	_ account.AccountRepository   = (*Repository)(nil)
	_ account.NotificationGateway = (*CaptureGateway)(nil)
)
