// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Package notify renders and delivers the out-of-band emails the account
// flows send: address verification after registration and password reset.
package notify

import (
	"html/template"
	"strings"

	"github.com/samber/oops"

	"github.com/accountd/accountd/internal/account"
)

const verificationSubject = "Verify your email address"

const resetSubject = "Reset your password"

var verificationTmpl = template.Must(template.New("verification").Parse(`<html>
<body>
<p>Welcome!</p>
<p>Follow the link below to verify your email address. The link expires, so
use it soon.</p>
<p><a href="{{.BaseURL}}/verify-email?token={{.Token}}">Verify email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
</body>
</html>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`<html>
<body>
<p>A password reset was requested for your account.</p>
<p><a href="{{.BaseURL}}/reset-password?token={{.Token}}">Choose a new password</a></p>
<p>If you did not request this, you can ignore this message; your password is
unchanged.</p>
</body>
</html>
`))

// Renderer renders the flow emails with links pointing at the frontend.
type Renderer struct {
	baseURL string
}

// NewRenderer creates a Renderer. baseURL is the frontend origin the email
// links point back to, without a trailing slash.
func NewRenderer(baseURL string) (*Renderer, error) {
	if baseURL == "" {
		return nil, oops.Code("NOTIFY_CONFIG_INVALID").Errorf("base URL is required")
	}
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}, nil
}

type linkData struct {
	BaseURL string
	Token   string
}

func (r *Renderer) render(tmpl *template.Template, subject, token string) (account.EmailMessage, error) {
	var body strings.Builder
	if err := tmpl.Execute(&body, linkData{BaseURL: r.baseURL, Token: token}); err != nil {
		return account.EmailMessage{}, oops.Code("NOTIFY_RENDER_FAILED").
			With("template", tmpl.Name()).
			Wrap(err)
	}
	return account.EmailMessage{Subject: subject, HTML: body.String()}, nil
}

// VerificationEmail renders the email sent after registration.
func (r *Renderer) VerificationEmail(_, token string) (account.EmailMessage, error) {
	return r.render(verificationTmpl, verificationSubject, token)
}

// PasswordResetEmail renders the email sent on a reset request.
func (r *Renderer) PasswordResetEmail(_, token string) (account.EmailMessage, error) {
	return r.render(resetTmpl, resetSubject, token)
}

// Compile-time interface check.
var _ account.EmailRenderer = (*Renderer)(nil)
