// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountd/accountd/internal/account"
)

type stubGateway struct {
	err error
}

func (g *stubGateway) Send(context.Context, string, string, string) error {
	return g.err
}

func newEmailsVec() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "test_emails_dispatched_total"},
		[]string{"kind", "outcome"},
	)
}

func TestInstrumentedGateway_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("counts verification sends", func(t *testing.T) {
		vec := newEmailsVec()
		g := NewInstrumentedGateway(&stubGateway{}, vec)

		require.NoError(t, g.Send(ctx, "ann@x.com", verificationSubject, "body"))
		assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("verification", "ok")))
	})

	t.Run("counts reset failures", func(t *testing.T) {
		vec := newEmailsVec()
		g := NewInstrumentedGateway(&stubGateway{err: errors.New("relay down")}, vec)

		err := g.Send(ctx, "ann@x.com", resetSubject, "body")
		require.Error(t, err, "the wrapped error must pass through")
		assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("password_reset", "error")))
	})

	t.Run("unknown subjects count as other", func(t *testing.T) {
		vec := newEmailsVec()
		g := NewInstrumentedGateway(&stubGateway{}, vec)

		require.NoError(t, g.Send(ctx, "ann@x.com", "Newsletter", "body"))
		assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("other", "ok")))
	})
}

var _ account.NotificationGateway = (*stubGateway)(nil)
