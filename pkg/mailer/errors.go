package mailer

import "errors"

var (
	// ErrTimeout is returned when the connection probe does not complete
	// within the configured bound.
	ErrTimeout = errors.New("mailer.connection_timeout")

	// ErrInvalidCredentials is returned when the SMTP server rejects the
	// sender's authentication.
	ErrInvalidCredentials = errors.New("mailer.invalid_credentials")

	// ErrConnectionRefused is returned when the SMTP endpoint refuses the
	// TCP connection.
	ErrConnectionRefused = errors.New("mailer.connection_refused")

	// ErrConnectionFailed is returned for probe failures that cannot be
	// classified more precisely.
	ErrConnectionFailed = errors.New("mailer.connection_failed")

	// ErrSendFailed is returned when the server rejects an individual
	// message after a successful probe.
	ErrSendFailed = errors.New("mailer.send_failed")
)
