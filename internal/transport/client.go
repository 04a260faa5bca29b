package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/userdeck/authkit/internal/domain"
)

// Client speaks the auth endpoints of the Userdeck API. All requests and
// responses are JSON; non-2xx responses carry an AuthError payload which is
// surfaced to callers verbatim.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type keyedPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Key             string `json:"key"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.Credentials, error) {
	creds := &domain.Credentials{}
	if err := c.post(ctx, "/auth/login", "", loginRequest{Email: email, Password: password}, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (c *Client) Register(ctx context.Context, email, password, confirmPassword string) (*domain.Credentials, error) {
	creds := &domain.Credentials{}
	req := registerRequest{Email: email, Password: password, ConfirmPassword: confirmPassword}
	if err := c.post(ctx, "/auth/register", "", req, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/logout", accessToken, struct{}{}, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/reset-password-request", "", forgotPasswordRequest{Email: email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, password, confirmPassword, key string) error {
	req := keyedPasswordRequest{Password: password, ConfirmPassword: confirmPassword, Key: key}
	return c.post(ctx, "/auth/reset-password", "", req, nil)
}

func (c *Client) VerifyAccount(ctx context.Context, password, confirmPassword, key string) error {
	req := keyedPasswordRequest{Password: password, ConfirmPassword: confirmPassword, Key: key}
	return c.post(ctx, "/auth/verify-account", "", req, nil)
}

// Refresh exchanges the refresh token for a new pair. The previous access
// token rides along as the bearer credential, expired or not.
func (c *Client) Refresh(ctx context.Context, accessToken, refreshToken string) (*domain.TokenPair, error) {
	pair := &domain.TokenPair{}
	if err := c.post(ctx, "/auth/jwt-refresh", accessToken, refreshRequest{RefreshToken: refreshToken}, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		authErr := &domain.AuthError{}
		if err := json.Unmarshal(raw, authErr); err != nil || authErr.Message == "" {
			authErr = &domain.AuthError{Message: http.StatusText(resp.StatusCode)}
		}
		c.logger.Debug("auth endpoint returned error", "path", path, "status", resp.StatusCode, "error", authErr.Message)
		return authErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
