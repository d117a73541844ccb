// Package senders manages the stored SMTP mailbox configurations campaigns
// send through, and exposes a connection check that probes a mailbox with
// the same transport the campaign engine uses. SMTP credentials are stored
// for sending but never included in API responses.
package senders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mergepost/mergepost/core"
	"github.com/mergepost/mergepost/modules/users"
	"github.com/mergepost/mergepost/pkg/mailer"
	"github.com/mergepost/mergepost/pkg/rbac"
	"github.com/mergepost/mergepost/store"
)

func currentUserID(ctx context.Context) (string, bool) {
	claims, ok := users.CurrentUser(ctx)
	return claims.UserID, ok
}

// Storage is the slice of the datastore the sender module needs.
type Storage interface {
	ListSenders(ctx context.Context) ([]store.Sender, error)
	GetSender(ctx context.Context, id string) (store.Sender, error)
	CreateSender(ctx context.Context, sender store.Sender) error
	UpdateSender(ctx context.Context, sender store.Sender) error
	DeleteSender(ctx context.Context, id string) error
}

// Service implements the /senders HTTP surface.
type Service struct {
	storage    Storage
	transports mailer.Factory
	authz      *rbac.Authorizer
	log        *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger used for sender lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the sender service. The transport factory is only used by
// the connection check endpoint.
func New(storage Storage, transports mailer.Factory, authz *rbac.Authorizer, opts ...Option) *Service {
	s := &Service{
		storage:    storage,
		transports: transports,
		authz:      authz,
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the sender routes. Reading the list is open to every
// authenticated user; mutations and the connection check are admin-level.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.With(rbac.Require(s.authz, rbac.PermReadSenders)).Get("/", s.handleList)
	r.With(rbac.Require(s.authz, rbac.PermManageSenders)).Post("/", s.handleCreate)
	r.With(rbac.Require(s.authz, rbac.PermManageSenders)).Put("/{senderID}", s.handleUpdate)
	r.With(rbac.Require(s.authz, rbac.PermManageSenders)).Delete("/{senderID}", s.handleDelete)
	r.With(rbac.Require(s.authz, rbac.PermManageSenders)).Post("/{senderID}/verify", s.handleVerify)

	return r
}

// senderResponse is the sender shape returned by the API. The SMTP
// credential never appears in a response.
type senderResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(s store.Sender) senderResponse {
	return senderResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Host:      s.Host,
		Port:      s.Port,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
	}
}

type senderRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.storage.ListSenders(r.Context())
	if err != nil {
		core.Error(w, err)
		return
	}

	resp := make([]senderResponse, 0, len(list))
	for _, sender := range list {
		resp = append(resp, toResponse(sender))
	}
	core.JSON(w, http.StatusOK, resp)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req senderRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Host == "" || req.Port == 0 {
		core.Error(w, core.BadRequest("All fields are required"))
		return
	}

	sender := store.Sender{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Host:      req.Host,
		Port:      req.Port,
		CreatedAt: time.Now().UTC(),
	}
	if actor, ok := currentUserID(r.Context()); ok {
		sender.CreatedBy = actor
	}
	if err := s.storage.CreateSender(r.Context(), sender); err != nil {
		core.Error(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "sender added",
		slog.String("sender_id", sender.ID),
		slog.String("host", sender.Host))

	core.JSON(w, http.StatusCreated, map[string]any{
		"message": "Sender added successfully",
		"sender":  toResponse(sender),
	})
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sender, err := s.storage.GetSender(r.Context(), chi.URLParam(r, "senderID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			core.Error(w, core.NotFound("Sender not found"))
			return
		}
		core.Error(w, err)
		return
	}

	var req senderRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}

	if req.Name != "" {
		sender.Name = req.Name
	}
	if req.Email != "" {
		sender.Email = req.Email
	}
	// An empty password keeps the stored credential so clients never have
	// to echo it back.
	if req.Password != "" {
		sender.Password = req.Password
	}
	if req.Host != "" {
		sender.Host = req.Host
	}
	if req.Port != 0 {
		sender.Port = req.Port
	}

	if err := s.storage.UpdateSender(r.Context(), sender); err != nil {
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]any{
		"message": "Sender updated successfully",
		"sender":  toResponse(sender),
	})
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.DeleteSender(r.Context(), chi.URLParam(r, "senderID")); err != nil {
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]string{"message": "Sender deleted successfully"})
}

func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	sender, err := s.storage.GetSender(r.Context(), chi.URLParam(r, "senderID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			core.Error(w, core.NotFound("Sender not found"))
			return
		}
		core.Error(w, err)
		return
	}

	transport := s.transports(mailer.SenderConfig{
		ID:       sender.ID,
		Name:     sender.Name,
		Email:    sender.Email,
		Password: sender.Password,
		Host:     sender.Host,
		Port:     sender.Port,
	})
	defer func() { _ = transport.Close() }()

	if err := transport.Verify(r.Context()); err != nil {
		s.log.WarnContext(r.Context(), "sender connection check failed",
			slog.String("sender_id", sender.ID),
			slog.String("host", sender.Host),
			slog.Any("error", err))
		core.Error(w, core.BadGateway(verifyFailureMessage(err)).WithError(err))
		return
	}

	core.JSON(w, http.StatusOK, map[string]string{"message": "Sender connection is valid"})
}

// verifyFailureMessage maps a classified probe failure onto the hint shown
// to the operator.
func verifyFailureMessage(err error) string {
	switch {
	case errors.Is(err, mailer.ErrTimeout):
		return "Connection timed out - check the SMTP host and port"
	case errors.Is(err, mailer.ErrInvalidCredentials):
		return "Authentication failed - check the sender email and password"
	case errors.Is(err, mailer.ErrConnectionRefused):
		return "Connection refused - SMTP server unreachable"
	default:
		return "Failed to connect to sender"
	}
}
