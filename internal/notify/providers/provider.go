// Package providers delivers rendered emails through external services.
package providers

import "errors"

// Provider names as recorded in email logs.
const (
	NameSendGrid = "sendgrid"
	NameBrevo    = "brevo"
	NameLog      = "log"
)

// ErrNotConfigured is returned by providers constructed without credentials.
var ErrNotConfigured = errors.New("email provider not configured")
