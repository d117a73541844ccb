package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"syscall"
	"time"

	"gopkg.in/gomail.v2"
)

// DefaultVerifyTimeout bounds the connection probe. Matches the socket
// timeout the service has always used for sender verification.
const DefaultVerifyTimeout = 10 * time.Second

// Option configures the SMTP transport.
type Option func(*smtpTransport)

// WithVerifyTimeout overrides the probe's bounded wait.
func WithVerifyTimeout(d time.Duration) Option {
	return func(t *smtpTransport) {
		if d > 0 {
			t.verifyTimeout = d
		}
	}
}

type smtpTransport struct {
	cfg           SenderConfig
	dialer        *gomail.Dialer
	conn          gomail.SendCloser
	verifyTimeout time.Duration
}

// NewTransport builds an SMTP transport for the given sender mailbox.
// Implicit TLS is derived from the port (465), matching SenderConfig.SSL.
func NewTransport(cfg SenderConfig, opts ...Option) Transport {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Email, cfg.Password)
	d.SSL = cfg.SSL()

	t := &smtpTransport{
		cfg:           cfg,
		dialer:        d,
		verifyTimeout: DefaultVerifyTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Verify dials and authenticates within the configured bound. The dial
// result arriving after the deadline is closed in the background so a slow
// server does not leak the connection.
func (t *smtpTransport) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.verifyTimeout)
	defer cancel()

	type dialResult struct {
		conn gomail.SendCloser
		err  error
	}
	done := make(chan dialResult, 1)
	go func() {
		conn, err := t.dialer.Dial()
		done <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if res := <-done; res.conn != nil {
				_ = res.conn.Close()
			}
		}()
		return fmt.Errorf("%w: no response from %s:%d within %s",
			ErrTimeout, t.cfg.Host, t.cfg.Port, t.verifyTimeout)
	case res := <-done:
		if res.err != nil {
			return classifyDialError(res.err)
		}
		t.conn = res.conn
		return nil
	}
}

// Send delivers one message over the connection opened by Verify.
func (t *smtpTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.conn == nil {
		conn, err := t.dialer.Dial()
		if err != nil {
			return classifyDialError(err)
		}
		t.conn = conn
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", t.cfg.Email, t.cfg.Name)
	m.SetHeader("To", msg.To)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := gomail.Send(t.conn, m); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close releases the SMTP connection if one was opened.
func (t *smtpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	conn := t.conn
	t.conn = nil
	return conn.Close()
}

// classifyDialError maps raw dial/auth errors onto the package sentinels so
// callers can distinguish timeout, bad credentials and unreachable hosts.
func classifyDialError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
}
