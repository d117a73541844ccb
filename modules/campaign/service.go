// Package campaign exposes the bulk-send surface: the mail-merge run over
// parsed CSV rows, the single-recipient test send and the CSV upload
// parser. All endpoints require the campaign send permission; the heavy
// lifting lives in the merge engine.
package campaign

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mergepost/mergepost/core"
	"github.com/mergepost/mergepost/pkg/mailer"
	"github.com/mergepost/mergepost/pkg/merge"
	"github.com/mergepost/mergepost/pkg/rbac"
	"github.com/mergepost/mergepost/store"
)

// maxCSVUploadBytes bounds the in-memory portion of a CSV upload.
const maxCSVUploadBytes = 10 << 20

// Storage is the slice of the datastore the campaign module needs.
type Storage interface {
	GetSender(ctx context.Context, id string) (store.Sender, error)
}

// Engine runs the mail-merge pipeline for this module.
type Engine interface {
	Run(ctx context.Context, req merge.Request) (merge.Report, error)
	TestSend(ctx context.Context, req merge.TestRequest) (merge.TestResult, error)
}

// Service implements the /campaigns HTTP surface.
type Service struct {
	storage Storage
	engine  Engine
	authz   *rbac.Authorizer
	log     *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger used for campaign events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the campaign service.
func New(storage Storage, engine Engine, authz *rbac.Authorizer, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		engine:  engine,
		authz:   authz,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the campaign routes.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(rbac.Require(s.authz, rbac.PermSendCampaigns))

	r.Post("/send", s.handleSend)
	r.Post("/test", s.handleTest)
	r.Post("/parse-csv", s.handleParseCSV)

	return r
}

type sendRequest struct {
	SenderID   string                   `json:"senderId"`
	Recipients merge.RecipientTemplates `json:"recipients"`
	Subject    string                   `json:"subject"`
	Message    string                   `json:"message"`
	CSVData    []merge.Row              `json:"csvData"`
}

type sendResponse struct {
	Message string `json:"message"`
	merge.Report
}

func (s *Service) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.SenderID == "" {
		core.Error(w, core.BadRequest("Sender ID is required"))
		return
	}
	if req.Recipients.To == "" {
		core.Error(w, core.BadRequest("Recipients (to field) are required"))
		return
	}
	if req.Subject == "" || req.Message == "" {
		core.Error(w, core.BadRequest("Subject and message are required"))
		return
	}
	if len(req.CSVData) == 0 {
		core.Error(w, core.BadRequest("CSV data is required"))
		return
	}

	sender, err := s.lookupSender(r.Context(), req.SenderID)
	if err != nil {
		core.Error(w, err)
		return
	}

	report, err := s.engine.Run(r.Context(), merge.Request{
		Sender:     sender,
		Recipients: req.Recipients,
		Subject:    req.Subject,
		Body:       req.Message,
		Rows:       req.CSVData,
	})
	if err != nil {
		core.Error(w, mapEngineError(err))
		return
	}

	s.log.InfoContext(r.Context(), "campaign completed",
		slog.String("sender_id", req.SenderID),
		slog.Int("success", report.SuccessCount),
		slog.Int("failure", report.FailureCount))

	core.JSON(w, http.StatusOK, sendResponse{
		Message: "Bulk email send completed",
		Report:  report,
	})
}

type testRequest struct {
	SenderID   string                   `json:"senderId"`
	Recipients merge.RecipientTemplates `json:"recipients"`
	Subject    string                   `json:"subject"`
	Message    string                   `json:"message"`
	RowData    merge.Row                `json:"rowData"`
}

type testResponse struct {
	Message string `json:"message"`
	SentTo  string `json:"sentTo"`
	Subject string `json:"subject"`
}

func (s *Service) handleTest(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.SenderID == "" {
		core.Error(w, core.BadRequest("Sender ID is required"))
		return
	}
	if req.Subject == "" || req.Message == "" {
		core.Error(w, core.BadRequest("Subject and message are required"))
		return
	}
	if req.RowData == nil {
		core.Error(w, core.BadRequest("Row data is required"))
		return
	}

	sender, err := s.lookupSender(r.Context(), req.SenderID)
	if err != nil {
		core.Error(w, err)
		return
	}

	result, err := s.engine.TestSend(r.Context(), merge.TestRequest{
		Sender:    sender,
		Recipient: req.Recipients.To,
		Subject:   req.Subject,
		Body:      req.Message,
		Row:       req.RowData,
	})
	if err != nil {
		core.Error(w, mapEngineError(err))
		return
	}

	core.JSON(w, http.StatusOK, testResponse{
		Message: "Test email sent successfully",
		SentTo:  result.Recipient,
		Subject: result.Subject,
	})
}

type parseCSVResponse struct {
	Fields   []string    `json:"fields"`
	Rows     []merge.Row `json:"rows"`
	RowCount int         `json:"rowCount"`
}

func (s *Service) handleParseCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCSVUploadBytes); err != nil {
		core.Error(w, core.BadRequest("A CSV file upload is required").WithError(err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		core.Error(w, core.BadRequest("A CSV file upload is required").WithError(err))
		return
	}
	defer func() { _ = file.Close() }()

	fields, rows, err := parseCSV(file)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, parseCSVResponse{
		Fields:   fields,
		Rows:     rows,
		RowCount: len(rows),
	})
}

// parseCSV reads a header row plus data rows. Every data row is keyed by
// the header columns; short rows are rejected by the csv reader.
func parseCSV(src io.Reader) ([]string, []merge.Row, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, core.BadRequest("CSV file is empty")
	}
	if err != nil {
		return nil, nil, core.BadRequest("Invalid CSV file").WithError(err)
	}

	rows := []merge.Row{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, core.BadRequest("Invalid CSV file").WithError(err)
		}
		row := make(merge.Row, len(header))
		for i, field := range header {
			row[field] = record[i]
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func (s *Service) lookupSender(ctx context.Context, id string) (mailer.SenderConfig, error) {
	sender, err := s.storage.GetSender(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return mailer.SenderConfig{}, core.NotFound("Sender not found")
		}
		return mailer.SenderConfig{}, err
	}
	return mailer.SenderConfig{
		ID:       sender.ID,
		Name:     sender.Name,
		Email:    sender.Email,
		Password: sender.Password,
		Host:     sender.Host,
		Port:     sender.Port,
	}, nil
}

// mapEngineError translates engine failures into HTTP errors. Structural
// problems are the caller's fault; SMTP connectivity is an upstream fault.
func mapEngineError(err error) error {
	switch {
	case errors.Is(err, merge.ErrIncompleteSender):
		return core.BadRequest("Sender configuration is incomplete")
	case errors.Is(err, merge.ErrMissingRecipient):
		return core.BadRequest("Recipients (to field) are required")
	case errors.Is(err, merge.ErrMissingContent):
		return core.BadRequest("Subject and message are required")
	case errors.Is(err, merge.ErrNoRows):
		return core.BadRequest("CSV data is required")
	case errors.Is(err, merge.ErrInvalidTestRecipient):
		return core.BadRequest("Invalid test recipient email address").WithError(err)
	case errors.Is(err, mailer.ErrSendFailed):
		return core.BadGateway("Failed to send test email").WithError(err)
	case errors.Is(err, mailer.ErrTimeout),
		errors.Is(err, mailer.ErrInvalidCredentials),
		errors.Is(err, mailer.ErrConnectionRefused),
		errors.Is(err, mailer.ErrConnectionFailed):
		return core.BadGateway("Failed to connect to sender SMTP server").WithError(err)
	default:
		return err
	}
}
