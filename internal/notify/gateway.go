// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Addr     string // host:port of the relay
	From     string // sender address
	Username string // optional; empty disables AUTH
	Password string
}

// SMTPGateway delivers emails through an SMTP relay. Each Send opens a fresh
// connection; the flows send rarely enough that pooling is not worth it.
type SMTPGateway struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPGateway creates an SMTPGateway.
func NewSMTPGateway(cfg SMTPConfig) (*SMTPGateway, error) {
	if cfg.Addr == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("SMTP address is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("SMTP sender address is required")
	}
	return &SMTPGateway{cfg: cfg, send: smtp.SendMail}, nil
}

// Send delivers one HTML email. The context is consulted before dialing;
// net/smtp does not support cancellation mid-send.
func (g *SMTPGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("to", to).Wrap(err)
	}

	var auth smtp.Auth
	if g.cfg.Username != "" {
		host := g.cfg.Addr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", g.cfg.Username, g.cfg.Password, host)
	}

	msg := buildMessage(g.cfg.From, to, subject, htmlBody)
	if err := g.send(g.cfg.Addr, auth, g.cfg.From, []string{to}, msg); err != nil {
		return oops.Code("NOTIFY_SEND_FAILED").With("to", to).Wrap(err)
	}
	return nil
}

// buildMessage assembles an RFC 5322 message with an HTML body.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// LogGateway logs emails instead of delivering them. Used in development and
// in deployments without a mail relay.
type LogGateway struct {
	log *slog.Logger
}

// NewLogGateway creates a LogGateway.
func NewLogGateway(log *slog.Logger) *LogGateway {
	if log == nil {
		log = slog.Default()
	}
	return &LogGateway{log: log}
}

// Send logs the message instead of delivering it. The body is omitted; it
// contains a live token.
func (g *LogGateway) Send(ctx context.Context, to, subject, _ string) error {
	g.log.InfoContext(ctx, "email suppressed by log gateway",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// Compile-time interface checks.
var (
	_ account.NotificationGateway = (*SMTPGateway)(nil)
	_ account.NotificationGateway = (*LogGateway)(nil)
)
