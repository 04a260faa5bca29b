package mockserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/security"
)

// Server is an in-memory stand-in for the Userdeck auth API, covering the
// full endpoint surface the client consumes. It backs integration tests and
// the `authkit mock-server` command; it is not a production server.
type Server struct {
	jwt    *security.JWTManager
	logger *slog.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration

	mu         sync.Mutex
	nextID     int
	users      map[string]*account // by email
	refresh    map[string]refreshGrant
	resetKeys  map[string]string // key -> email
	verifyKeys map[string]string // key -> email
}

type account struct {
	id       int
	email    string
	password string
	role     string
	verified bool
}

type refreshGrant struct {
	userID    int
	expiresAt time.Time
}

type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *slog.Logger
}

func New(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "mock-secret"
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		jwt:        security.NewJWTManager("userdeck-mock", opts.Secret),
		logger:     opts.Logger,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		nextID:     1,
		users:      make(map[string]*account),
		refresh:    make(map[string]refreshGrant),
		resetKeys:  make(map[string]string),
		verifyKeys: make(map[string]string),
	}
}

// Seed registers a user directly, bypassing the register endpoint.
func (s *Server) Seed(email, password, role string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &account{id: s.nextID, email: email, password: password, role: role, verified: true}
	s.nextID++
	s.users[email] = a
	return a.user()
}

// IssueResetKey mints a password-reset key for an existing user.
func (s *Server) IssueResetKey(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uuid.NewString()
	s.resetKeys[key] = email
	return key
}

// IssueVerifyKey mints an account-verification key for an existing user.
func (s *Server) IssueVerifyKey(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := uuid.NewString()
	s.verifyKeys[key] = email
	return key
}

func (a *account) user() domain.User {
	return domain.User{ID: a.id, Email: a.email, Role: a.role}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Post("/reset-password-request", s.handleResetRequest)
		r.Post("/reset-password", s.handleResetPassword)
		r.Post("/verify-account", s.handleVerifyAccount)
		r.Post("/jwt-refresh", s.handleRefresh)
	})
	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	a, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || a.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	s.issueCredentials(w, a)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Validation failed", &domain.FieldPair{Field: "email", Message: "Email is required"})
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Validation failed", &domain.FieldPair{Field: "confirmPassword", Message: "Passwords do not match"})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "Account already exists", &domain.FieldPair{Field: "email", Message: "Email is taken"})
		return
	}
	a := &account{id: s.nextID, email: req.Email, password: req.Password, role: "user"}
	s.nextID++
	s.users[req.Email] = a
	s.mu.Unlock()

	s.issueCredentials(w, a)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, err := s.bearerClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid access token", nil)
		return
	}
	userID, _ := strconv.Atoi(claims.Subject)

	s.mu.Lock()
	for token, grant := range s.refresh {
		if grant.userID == userID {
			delete(s.refresh, token)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	if _, ok := s.users[req.Email]; ok {
		s.resetKeys[uuid.NewString()] = req.Email
	}
	s.mu.Unlock()
	// Unknown emails get the same answer as known ones.
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	s.handleKeyedPassword(w, r, s.resetKeys, func(a *account, password string) {
		a.password = password
	})
}

func (s *Server) handleVerifyAccount(w http.ResponseWriter, r *http.Request) {
	s.handleKeyedPassword(w, r, s.verifyKeys, func(a *account, password string) {
		a.password = password
		a.verified = true
	})
}

func (s *Server) handleKeyedPassword(w http.ResponseWriter, r *http.Request, keys map[string]string, apply func(*account, string)) {
	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
		Key             string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Password != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Validation failed", &domain.FieldPair{Field: "confirmPassword", Message: "Passwords do not match"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := keys[req.Key]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired key", nil)
		return
	}
	a, ok := s.users[email]
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid or expired key", nil)
		return
	}
	apply(a, req.Password)
	delete(keys, req.Key)
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if bearerToken(r) == "" {
		writeError(w, http.StatusUnauthorized, "Missing access token", nil)
		return
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	grant, ok := s.refresh[req.RefreshToken]
	if ok {
		delete(s.refresh, req.RefreshToken)
	}
	var a *account
	if ok && time.Now().Before(grant.expiresAt) {
		for _, candidate := range s.users {
			if candidate.id == grant.userID {
				a = candidate
				break
			}
		}
	}
	s.mu.Unlock()

	if a == nil {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token", nil)
		return
	}

	access, refresh, err := s.mintPair(a)
	if err != nil {
		s.logger.Error("mint token pair", "error", err)
		writeError(w, http.StatusInternalServerError, "Token minting failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, domain.TokenPair{AccessToken: access, RefreshToken: refresh})
}

func (s *Server) issueCredentials(w http.ResponseWriter, a *account) {
	access, refresh, err := s.mintPair(a)
	if err != nil {
		s.logger.Error("mint token pair", "error", err)
		writeError(w, http.StatusInternalServerError, "Token minting failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, domain.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         a.user(),
	})
}

func (s *Server) mintPair(a *account) (string, string, error) {
	access, err := s.jwt.SignAccessToken(a.id, a.email, a.role, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh := uuid.NewString()
	s.mu.Lock()
	s.refresh[refresh] = refreshGrant{userID: a.id, expiresAt: time.Now().Add(s.refreshTTL)}
	s.mu.Unlock()
	return access, refresh, nil
}

func (s *Server) bearerClaims(r *http.Request) (*security.Claims, error) {
	return s.jwt.ParseToken(bearerToken(r), "access")
}
