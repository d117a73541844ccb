package merge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mergepost/mergepost/pkg/mailer"
	"github.com/mergepost/mergepost/pkg/merge"
)

// mockTransport is a testify mock of the SMTP transport.
type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Verify(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockTransport) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockTransport) Close() error {
	return m.Called().Error(0)
}

// sentMessages extracts the messages passed to Send, in call order.
func (m *mockTransport) sentMessages() []mailer.Message {
	var msgs []mailer.Message
	for _, call := range m.Calls {
		if call.Method == "Send" {
			msgs = append(msgs, call.Arguments.Get(1).(mailer.Message))
		}
	}
	return msgs
}

func testSender() mailer.SenderConfig {
	return mailer.SenderConfig{
		ID:       "sender-1",
		Name:     "Campaign Bot",
		Email:    "bot@example.com",
		Password: "secret",
		Host:     "smtp.example.com",
		Port:     587,
	}
}

func newEngine(transport mailer.Transport) *merge.Engine {
	return merge.New(func(mailer.SenderConfig) mailer.Transport { return transport })
}

func TestRunStructuralValidation(t *testing.T) {
	t.Parallel()

	valid := merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello",
		Body:       "Hi {{name}}",
		Rows:       []merge.Row{{"email": "a@example.com"}},
	}

	tests := []struct {
		name    string
		mutate  func(*merge.Request)
		wantErr error
	}{
		{
			name:    "incomplete sender",
			mutate:  func(r *merge.Request) { r.Sender.Password = "" },
			wantErr: merge.ErrIncompleteSender,
		},
		{
			name:    "missing to template",
			mutate:  func(r *merge.Request) { r.Recipients.To = "   " },
			wantErr: merge.ErrMissingRecipient,
		},
		{
			name:    "missing subject",
			mutate:  func(r *merge.Request) { r.Subject = "" },
			wantErr: merge.ErrMissingContent,
		},
		{
			name:    "missing body",
			mutate:  func(r *merge.Request) { r.Body = "" },
			wantErr: merge.ErrMissingContent,
		},
		{
			name:    "no rows",
			mutate:  func(r *merge.Request) { r.Rows = nil },
			wantErr: merge.ErrNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// The factory must never be reached on structural errors: no
			// network I/O happens before validation passes.
			factoryCalls := 0
			engine := merge.New(func(mailer.SenderConfig) mailer.Transport {
				factoryCalls++
				return new(mockTransport)
			})

			req := valid
			tt.mutate(&req)
			_, err := engine.Run(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, factoryCalls)
		})
	}
}

func TestRunProbeFailureSendsNothing(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(mailer.ErrInvalidCredentials)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	_, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello",
		Body:       "Hi",
		Rows:       []merge.Row{{"email": "a@example.com"}, {"email": "b@example.com"}},
	})

	require.ErrorIs(t, err, mailer.ErrInvalidCredentials)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	transport.AssertCalled(t, "Close")
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hi {{name}}",
		Body:       "Dear {{name}},\nwelcome!",
		Rows: []merge.Row{
			{"email": "ana@example.com", "name": "Ana"},
			{"email": "bob@example.com", "name": "Bob"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 0, report.FailureCount)
	assert.Equal(t, 2, report.TotalCount)
	assert.Empty(t, report.Errors)

	msgs := transport.sentMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "ana@example.com", msgs[0].To)
	assert.Equal(t, "Hi Ana", msgs[0].Subject)
	assert.Equal(t, "Dear Ana,<br>welcome!", msgs[0].HTML)
	assert.Equal(t, "Dear Ana,\nwelcome!", msgs[0].Text)
	assert.Equal(t, "bob@example.com", msgs[1].To)
}

func TestRunInvalidEmailFailsRow(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{to}}"},
		Subject:    "Hello",
		Body:       "Hi",
		Rows:       []merge.Row{{"to": "not-an-email"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, 1, report.TotalCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "invalid email format: not-an-email")
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRunEmptyRecipientFailsRowOnly(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	rows := []merge.Row{
		{"email": "one@example.com", "name": "One"},
		{"email": "", "name": "Two"},
		{"email": "three@example.com", "name": "Three"},
	}

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello {{name}}",
		Body:       "Hi",
		Rows:       rows,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, 3, report.TotalCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, rows[1], report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Error, "no valid recipient address found")
}

func TestRunCCListFiltersInvalidTokens(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender: testSender(),
		Recipients: merge.RecipientTemplates{
			To: "{{email}}",
			CC: "{{cc1}}, not-an-email",
		},
		Subject: "Hello",
		Body:    "Hi",
		Rows:    []merge.Row{{"email": "a@example.com", "cc1": "ok@example.com"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)

	msgs := transport.sentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ok@example.com"}, msgs[0].CC)
	assert.Empty(t, msgs[0].BCC)
}

func TestRunTransportErrorIsIsolatedPerRow(t *testing.T) {
	t.Parallel()

	rejected := errors.New("550 mailbox unavailable")

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.To == "bad@example.com"
	})).Return(rejected)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	rows := []merge.Row{
		{"email": "good@example.com"},
		{"email": "bad@example.com"},
		{"email": "fine@example.com"},
	}

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello",
		Body:       "Hi",
		Rows:       rows,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, 3, report.TotalCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, rows[1], report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Error, "550 mailbox unavailable")
}

func TestRunErrorsPreserveInputOrder(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	rows := []merge.Row{
		{"email": "bad-one", "id": "1"},
		{"email": "two@example.com", "id": "2"},
		{"email": "bad-three", "id": "3"},
		{"email": "four@example.com", "id": "4"},
		{"email": "bad-five", "id": "5"},
	}

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello",
		Body:       "Hi",
		Rows:       rows,
	})

	require.NoError(t, err)
	assert.Equal(t, report.TotalCount, report.SuccessCount+report.FailureCount)
	require.Len(t, report.Errors, report.FailureCount)

	var failedIDs []string
	for _, rowErr := range report.Errors {
		failedIDs = append(failedIDs, rowErr.Row["id"])
	}
	assert.Equal(t, []string{"1", "3", "5"}, failedIDs)
}

func TestRunRecoversFromPanicPerRow(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m mailer.Message) bool {
		return m.To == "boom@example.com"
	})).Run(func(mock.Arguments) {
		panic("transport blew up")
	}).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	report, err := engine.Run(context.Background(), merge.Request{
		Sender:     testSender(),
		Recipients: merge.RecipientTemplates{To: "{{email}}"},
		Subject:    "Hello",
		Body:       "Hi",
		Rows: []merge.Row{
			{"email": "boom@example.com"},
			{"email": "safe@example.com"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error, "internal error")
	assert.Contains(t, report.Errors[0].Error, "transport blew up")
}

func TestTestSendDefaultsToSenderMailbox(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	result, err := engine.TestSend(context.Background(), merge.TestRequest{
		Sender:  testSender(),
		Subject: "Hi {{name}}",
		Body:    "Dear {{name}},\nthis is a preview.",
		Row:     merge.Row{"name": "Ana"},
	})

	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", result.Recipient)
	assert.Equal(t, "[TEST] Hi Ana", result.Subject)

	msgs := transport.sentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "bot@example.com", msgs[0].To)
	assert.Equal(t, "[TEST] Hi Ana", msgs[0].Subject)
	assert.Equal(t, "Dear Ana,<br>this is a preview.", msgs[0].HTML)
	assert.Equal(t, "Dear Ana,\nthis is a preview.", msgs[0].Text)
}

func TestTestSendExplicitRecipient(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(nil)
	transport.On("Send", mock.Anything, mock.Anything).Return(nil)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	result, err := engine.TestSend(context.Background(), merge.TestRequest{
		Sender:    testSender(),
		Recipient: "qa@example.com",
		Subject:   "Subject",
		Body:      "Body",
	})

	require.NoError(t, err)
	assert.Equal(t, "qa@example.com", result.Recipient)
}

func TestTestSendInvalidRecipient(t *testing.T) {
	t.Parallel()

	factoryCalls := 0
	engine := merge.New(func(mailer.SenderConfig) mailer.Transport {
		factoryCalls++
		return new(mockTransport)
	})

	_, err := engine.TestSend(context.Background(), merge.TestRequest{
		Sender:    testSender(),
		Recipient: "not-an-email",
		Subject:   "Subject",
		Body:      "Body",
	})

	require.ErrorIs(t, err, merge.ErrInvalidTestRecipient)
	assert.Zero(t, factoryCalls)
}

func TestTestSendProbeFailure(t *testing.T) {
	t.Parallel()

	transport := new(mockTransport)
	transport.On("Verify", mock.Anything).Return(mailer.ErrTimeout)
	transport.On("Close").Return(nil)

	engine := newEngine(transport)
	_, err := engine.TestSend(context.Background(), merge.TestRequest{
		Sender:  testSender(),
		Subject: "Subject",
		Body:    "Body",
	})

	require.ErrorIs(t, err, mailer.ErrTimeout)
	transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
