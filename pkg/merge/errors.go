package merge

import "errors"

var (
	// ErrIncompleteSender is returned when the sender config lacks the
	// identity, credential, host or port.
	ErrIncompleteSender = errors.New("merge.sender_configuration_incomplete")

	// ErrMissingRecipient is returned when the "to" recipient template is
	// empty.
	ErrMissingRecipient = errors.New("merge.missing_recipient_template")

	// ErrMissingContent is returned when the subject or body template is
	// empty.
	ErrMissingContent = errors.New("merge.missing_subject_or_body")

	// ErrNoRows is returned when the request carries no recipient data.
	ErrNoRows = errors.New("merge.no_recipient_data")

	// ErrInvalidTestRecipient is returned when a test send resolves to an
	// address that fails validation.
	ErrInvalidTestRecipient = errors.New("merge.invalid_test_recipient")
)
