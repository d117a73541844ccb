package merge

import (
	"strings"

	"github.com/mergepost/mergepost/pkg/mailer"
)

// Row holds one recipient's field values keyed by CSV column name.
// Rows are immutable once produced and are processed in input order.
type Row map[string]string

// RecipientTemplates carries the templated address fields of a campaign.
// Only To is required; CC and BCC are optional comma-separated lists.
type RecipientTemplates struct {
	To  string `json:"to"`
	CC  string `json:"cc,omitempty"`
	BCC string `json:"bcc,omitempty"`
}

// Request describes one bulk campaign: the sender mailbox, the templated
// fields and the ordered recipient rows. A Request is built fresh per API
// call and never mutated after construction.
type Request struct {
	Sender     mailer.SenderConfig
	Recipients RecipientTemplates
	Subject    string
	Body       string
	Rows       []Row
}

func (r Request) validate() error {
	if !r.Sender.Complete() {
		return ErrIncompleteSender
	}
	if strings.TrimSpace(r.Recipients.To) == "" {
		return ErrMissingRecipient
	}
	if r.Subject == "" || r.Body == "" {
		return ErrMissingContent
	}
	if len(r.Rows) == 0 {
		return ErrNoRows
	}
	return nil
}

// RowError records one failed row together with a human-readable reason.
type RowError struct {
	Row   Row    `json:"row"`
	Error string `json:"error"`
}

// Report aggregates the per-row outcomes of a completed run.
// SuccessCount+FailureCount == TotalCount always holds, and Errors is an
// input-order subsequence of the request's rows.
type Report struct {
	SuccessCount int        `json:"successCount"`
	FailureCount int        `json:"failureCount"`
	TotalCount   int        `json:"totalCount"`
	Errors       []RowError `json:"errors,omitempty"`
}

// TestRequest describes a single-recipient test send used to sanity-check
// a template before a full run. Recipient is optional and defaults to the
// sender's own mailbox; Row supplies the field values (typically the first
// row of a real dataset).
type TestRequest struct {
	Sender    mailer.SenderConfig
	Recipient string
	Subject   string
	Body      string
	Row       Row
}

func (r TestRequest) validate() error {
	if !r.Sender.Complete() {
		return ErrIncompleteSender
	}
	if r.Subject == "" || r.Body == "" {
		return ErrMissingContent
	}
	return nil
}

// TestResult reports where a test send actually went and the marker-prefixed
// subject that was used.
type TestResult struct {
	Recipient string `json:"sentTo"`
	Subject   string `json:"subject"`
}
