// Package users owns the account surface: login with bearer-token issuance,
// registration by privileged operators, and the superadmin-level account
// management endpoints. Passwords are bcrypt-hashed at rest and never leave
// the store in any response.
package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mergepost/mergepost/core"
	"github.com/mergepost/mergepost/pkg/jwt"
	"github.com/mergepost/mergepost/pkg/rbac"
	"github.com/mergepost/mergepost/store"
)

// Config holds the tunables of the account module.
type Config struct {
	// TokenTTL is the lifetime of issued login tokens.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"720h"`
}

// Storage is the slice of the datastore the account module needs.
type Storage interface {
	ListUsers(ctx context.Context) ([]store.User, error)
	GetUser(ctx context.Context, id string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) error
	UpdateUser(ctx context.Context, user store.User) error
	DeleteUser(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int, error)
}

// Service implements the /auth HTTP surface.
type Service struct {
	cfg     Config
	storage Storage
	tokens  *jwt.Service
	authz   *rbac.Authorizer
	log     *slog.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithLogger sets the logger used for account lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the account service.
func New(cfg Config, storage Storage, tokens *jwt.Service, authz *rbac.Authorizer, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		storage: storage,
		tokens:  tokens,
		authz:   authz,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle mounts the account routes. Login is the only public endpoint;
// everything else requires a bearer token and the matching permission.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(Middleware(s.tokens))

		r.With(rbac.Require(s.authz, rbac.PermCreateUsers)).Post("/register", s.handleRegister)
		r.With(rbac.Require(s.authz, rbac.PermManageUsers)).Get("/users", s.handleList)
		r.With(rbac.Require(s.authz, rbac.PermManageUsers)).Put("/users/{userID}/disable", s.handleSetActive(false))
		r.With(rbac.Require(s.authz, rbac.PermManageUsers)).Put("/users/{userID}/enable", s.handleSetActive(true))
		r.With(rbac.Require(s.authz, rbac.PermCreateUsers)).Put("/users/{userID}", s.handleUpdate)
		r.With(rbac.Require(s.authz, rbac.PermCreateUsers)).Delete("/users/{userID}", s.handleDelete)
	})

	return r
}

// SeedSuperadmin creates the initial superadmin account when the datastore
// holds no users at all. Subsequent startups are a no-op.
func (s *Service) SeedSuperadmin(ctx context.Context, email, password, name string) error {
	count, err := s.storage.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if email == "" || password == "" {
		return errors.New("users: superadmin email and password are required on first run")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Super Admin"
	}

	user := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         rbac.RoleSuperadmin,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "seeded initial superadmin", slog.String("email", email))
	return nil
}

// userResponse is the account shape returned by the API. There is no
// password field on purpose.
type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toResponse(u store.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedBy: u.CreatedBy,
		CreatedAt: u.CreatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		core.Error(w, core.BadRequest("Email and password are required"))
		return
	}

	user, err := s.storage.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			core.Error(w, core.Unauthorized("Invalid credentials"))
			return
		}
		core.Error(w, err)
		return
	}
	if !user.IsActive {
		core.Error(w, core.Unauthorized("User is disabled"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		core.Error(w, core.Unauthorized("Invalid credentials"))
		return
	}

	now := time.Now()
	token, err := s.tokens.Generate(Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.cfg.TokenTTL).Unix(),
		},
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		core.Error(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role))

	resp := loginResponse{Message: "Login successful", Token: token}
	resp.User.ID = user.ID
	resp.User.Email = user.Email
	resp.User.Name = user.Name
	resp.User.Role = user.Role
	core.JSON(w, http.StatusOK, resp)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		core.Error(w, core.Unauthorized("No token provided"))
		return
	}

	var req registerRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		core.Error(w, core.BadRequest("Email, password and name are required"))
		return
	}
	if err := s.authz.VerifyRole(req.Role); err != nil {
		core.Error(w, core.BadRequest("Invalid role"))
		return
	}
	// Superadmins create any role; admins only plain users.
	if actor.Role != rbac.RoleSuperadmin && req.Role != rbac.RoleUser {
		core.Error(w, core.Forbidden("You do not have permission to create this user role"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		core.Error(w, err)
		return
	}

	user := store.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         req.Role,
		IsActive:     true,
		CreatedBy:    actor.UserID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.storage.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			core.Error(w, core.BadRequest("User already exists"))
			return
		}
		core.Error(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "user created",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
		slog.String("created_by", actor.UserID))

	core.JSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    toResponse(user),
	})
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.storage.ListUsers(r.Context())
	if err != nil {
		core.Error(w, err)
		return
	}

	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toResponse(u))
	}
	core.JSON(w, http.StatusOK, resp)
}

func (s *Service) handleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.storage.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				core.Error(w, core.NotFound("User not found"))
				return
			}
			core.Error(w, err)
			return
		}

		user.IsActive = active
		if err := s.storage.UpdateUser(r.Context(), user); err != nil {
			core.Error(w, err)
			return
		}

		message := "User disabled successfully"
		if active {
			message = "User enabled successfully"
		}
		core.JSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

type updateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		core.Error(w, core.Unauthorized("No token provided"))
		return
	}

	target, err := s.storage.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			core.Error(w, core.NotFound("User not found"))
			return
		}
		core.Error(w, err)
		return
	}

	// Superadmins edit anyone; admins only accounts they created.
	if actor.Role != rbac.RoleSuperadmin && target.CreatedBy != actor.UserID {
		core.Error(w, core.Forbidden("You can only edit users you created"))
		return
	}

	var req updateRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.Error(w, err)
		return
	}
	if req.Role != "" && req.Role != target.Role && actor.Role != rbac.RoleSuperadmin {
		core.Error(w, core.Forbidden("Admins cannot change user roles"))
		return
	}
	if req.Role != "" && actor.Role == rbac.RoleSuperadmin {
		if err := s.authz.VerifyRole(req.Role); err != nil {
			core.Error(w, core.BadRequest("Invalid role"))
			return
		}
		target.Role = req.Role
	}

	if req.Name != "" {
		target.Name = req.Name
	}
	if req.Email != "" {
		target.Email = req.Email
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			core.Error(w, err)
			return
		}
		target.PasswordHash = string(hash)
	}

	if err := s.storage.UpdateUser(r.Context(), target); err != nil {
		core.Error(w, err)
		return
	}

	core.JSON(w, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    toResponse(target),
	})
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentUser(r.Context())
	if !ok {
		core.Error(w, core.Unauthorized("No token provided"))
		return
	}

	target, err := s.storage.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			core.Error(w, core.NotFound("User not found"))
			return
		}
		core.Error(w, err)
		return
	}

	if actor.Role != rbac.RoleSuperadmin && target.CreatedBy != actor.UserID {
		core.Error(w, core.Forbidden("You can only delete users you created"))
		return
	}
	// Superadmin accounts are never deletable, not even by each other.
	if target.Role == rbac.RoleSuperadmin {
		core.Error(w, core.Forbidden("Cannot delete superadmin users"))
		return
	}

	if err := s.storage.DeleteUser(r.Context(), target.ID); err != nil {
		core.Error(w, err)
		return
	}

	s.log.InfoContext(r.Context(), "user deleted",
		slog.String("user_id", target.ID),
		slog.String("deleted_by", actor.UserID))

	core.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
