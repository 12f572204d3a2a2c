// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package account

import "context"

// EmailMessage is a rendered email ready for dispatch.
type EmailMessage struct {
	Subject string
	HTML    string
}

// EmailRenderer renders the out-of-band emails the flows send. The token is
// embedded in a link the recipient follows back to the service.
type EmailRenderer interface {
	// VerificationEmail renders the email sent after registration.
	VerificationEmail(email, token string) (EmailMessage, error)

	// PasswordResetEmail renders the email sent on a reset request.
	PasswordResetEmail(email, token string) (EmailMessage, error)
}

// NotificationGateway delivers a rendered message out of band. Delivery is
// fire-and-forget from the flows' perspective: failures are logged by the
// caller, never retried here and never surfaced to the requester.
type NotificationGateway interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
