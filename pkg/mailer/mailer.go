package mailer

import "context"

// Message is one fully rendered email ready for delivery. The "from"
// identity comes from the SenderConfig the transport was built with.
type Message struct {
	To      string
	CC      []string
	BCC     []string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers messages through a single SMTP connection owned by
// one campaign run for its whole duration. Implementations are not safe
// for concurrent use; the engine sends strictly sequentially.
type Transport interface {
	// Verify opens an authenticated connection and confirms the server
	// accepts commands, within a bounded wait. It must be called before
	// Send; a Verify failure means zero messages were sent.
	Verify(ctx context.Context) error

	// Send delivers one message over the verified connection.
	Send(ctx context.Context, msg Message) error

	// Close releases the connection. Safe to call on a transport that
	// never connected.
	Close() error
}

// Factory builds a request-scoped Transport for the given sender mailbox.
// The merge engine constructs one transport per run and closes it on every
// exit path; transports are never pooled or shared across requests.
type Factory func(cfg SenderConfig) Transport
