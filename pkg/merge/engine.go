package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mergepost/mergepost/pkg/mailer"
	"github.com/mergepost/mergepost/pkg/template"
	"github.com/mergepost/mergepost/pkg/validator"
)

// TestSubjectPrefix marks test sends so they are visually distinguishable
// from production campaigns.
const TestSubjectPrefix = "[TEST] "

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the logger used for run-level and per-row diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine runs bulk campaigns and single-recipient test sends. It holds no
// per-request state; a fresh transport is built and closed for every run.
type Engine struct {
	transports mailer.Factory
	log        *slog.Logger
}

// New creates an engine sending through transports built by the factory.
func New(transports mailer.Factory, opts ...Option) *Engine {
	e := &Engine{
		transports: transports,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one campaign: structural validation, a single connection
// probe, then one send per row in input order. Structural and probe
// failures reject the whole request with no rows processed; everything
// after the probe is absorbed into per-row accounting, so any returned
// Report satisfies SuccessCount+FailureCount == TotalCount.
func (e *Engine) Run(ctx context.Context, req Request) (Report, error) {
	if err := req.validate(); err != nil {
		return Report{}, err
	}

	transport := e.transports(req.Sender)
	defer func() { _ = transport.Close() }()

	if err := transport.Verify(ctx); err != nil {
		e.log.ErrorContext(ctx, "sender connection probe failed",
			slog.String("sender_id", req.Sender.ID),
			slog.String("host", req.Sender.Host),
			slog.Any("error", err))
		return Report{}, err
	}

	report := Report{TotalCount: len(req.Rows)}
	for i, row := range req.Rows {
		reason, ok := e.sendRow(ctx, transport, req, row)
		if !ok {
			report.FailureCount++
			report.Errors = append(report.Errors, RowError{Row: row, Error: reason})
			e.log.WarnContext(ctx, "row send failed",
				slog.Int("row", i), slog.String("reason", reason))
			continue
		}
		report.SuccessCount++
	}

	e.log.InfoContext(ctx, "bulk send completed",
		slog.String("sender_id", req.Sender.ID),
		slog.Int("success", report.SuccessCount),
		slog.Int("failure", report.FailureCount),
		slog.Int("total", report.TotalCount))
	return report, nil
}

// TestSend runs the same render → validate → probe → send pipeline over a
// single row, delivered to an explicit test address (the sender's own
// mailbox by default) with the subject tagged by TestSubjectPrefix.
func (e *Engine) TestSend(ctx context.Context, req TestRequest) (TestResult, error) {
	if err := req.validate(); err != nil {
		return TestResult{}, err
	}

	// The recipient may itself be a template resolved against the row.
	recipient := strings.TrimSpace(template.Render(req.Recipient, req.Row))
	if recipient == "" {
		recipient = req.Sender.Email
	}
	if !validator.IsValidEmail(recipient) {
		return TestResult{}, fmt.Errorf("%w: %s", ErrInvalidTestRecipient, recipient)
	}

	transport := e.transports(req.Sender)
	defer func() { _ = transport.Close() }()

	if err := transport.Verify(ctx); err != nil {
		return TestResult{}, err
	}

	subject, html, text := renderContent(req.Subject, req.Body, req.Row)
	subject = TestSubjectPrefix + subject
	msg := mailer.Message{To: recipient, Subject: subject, HTML: html, Text: text}

	if err := transport.Send(ctx, msg); err != nil {
		return TestResult{}, err
	}

	e.log.InfoContext(ctx, "test email sent",
		slog.String("sender_id", req.Sender.ID),
		slog.String("recipient", recipient))
	return TestResult{Recipient: recipient, Subject: subject}, nil
}

// sendRow processes one row. It reports either success or a failure reason;
// a panic while handling the row is recorded as that row's failure so an
// unexpected error can never crash an in-progress batch.
func (e *Engine) sendRow(ctx context.Context, transport mailer.Transport, req Request, row Row) (reason string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			reason = fmt.Sprintf("internal error: %v", r)
			ok = false
		}
	}()

	to := strings.TrimSpace(template.Render(req.Recipients.To, row))
	if to == "" {
		return "no valid recipient address found", false
	}
	if !validator.IsValidEmail(to) {
		return "invalid email format: " + to, false
	}

	subject, html, text := renderContent(req.Subject, req.Body, row)
	msg := mailer.Message{To: to, Subject: subject, HTML: html, Text: text}
	if req.Recipients.CC != "" {
		msg.CC = validator.FilterAddressList(template.Render(req.Recipients.CC, row))
	}
	if req.Recipients.BCC != "" {
		msg.BCC = validator.FilterAddressList(template.Render(req.Recipients.BCC, row))
	}

	if err := transport.Send(ctx, msg); err != nil {
		return err.Error(), false
	}
	return "", true
}

// renderContent renders subject and body against one row. Both body
// variants derive from the same rendered string so the HTML (line breaks
// mapped to <br>) and plain-text forms can never diverge in content.
func renderContent(subjectTpl, bodyTpl string, row Row) (subject, html, text string) {
	subject = template.Render(subjectTpl, row)
	body := template.Render(bodyTpl, row)
	return subject, strings.ReplaceAll(body, "\n", "<br>"), body
}
