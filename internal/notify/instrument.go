// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/accountd/accountd/internal/account"
)

// InstrumentedGateway wraps a NotificationGateway and counts dispatches by
// kind and outcome.
type InstrumentedGateway struct {
	next   account.NotificationGateway
	emails *prometheus.CounterVec
}

// NewInstrumentedGateway creates an InstrumentedGateway. emails must carry
// the labels kind and outcome.
func NewInstrumentedGateway(next account.NotificationGateway, emails *prometheus.CounterVec) *InstrumentedGateway {
	return &InstrumentedGateway{next: next, emails: emails}
}

// Send delegates to the wrapped gateway and records the outcome.
func (g *InstrumentedGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	kind := "other"
	switch subject {
	case verificationSubject:
		kind = "verification"
	case resetSubject:
		kind = "password_reset"
	}

	err := g.next.Send(ctx, to, subject, htmlBody)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	g.emails.WithLabelValues(kind, outcome).Inc()
	return err
}

// Compile-time interface check.
var _ account.NotificationGateway = (*InstrumentedGateway)(nil)
