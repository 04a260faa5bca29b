package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/mockserver"
)

func newClientForTest(t *testing.T) (*mockserver.Server, *Client) {
	t.Helper()

	srv := mockserver.New(mockserver.Options{Logger: testLogger()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, NewClient(ts.URL, 5*time.Second, testLogger())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientLoginSuccess(t *testing.T) {
	srv, client := newClientForTest(t)
	want := srv.Seed("a@b.com", "pw", "admin")

	creds, err := client.Login(context.Background(), "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if creds.User != want {
		t.Fatalf("user = %+v, want %+v", creds.User, want)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}
}

func TestClientLoginInvalidCredentials(t *testing.T) {
	srv, client := newClientForTest(t)
	srv.Seed("a@b.com", "pw", "user")

	_, err := client.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected login failure")
	}
	authErr := &domain.AuthError{}
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T: %v", err, err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Fatalf("error = %q, want server payload verbatim", authErr.Message)
	}
}

func TestClientRegisterFieldError(t *testing.T) {
	_, client := newClientForTest(t)

	_, err := client.Register(context.Background(), "new@b.com", "pw1", "pw2")
	authErr := &domain.AuthError{}
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T: %v", err, err)
	}
	if authErr.FieldError == nil || authErr.FieldError.Field != "confirmPassword" {
		t.Fatalf("field error = %+v", authErr.FieldError)
	}
}

func TestClientRefreshRotatesPair(t *testing.T) {
	srv, client := newClientForTest(t)
	srv.Seed("a@b.com", "pw", "user")
	ctx := context.Background()

	creds, err := client.Login(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := client.Refresh(ctx, creds.AccessToken, creds.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken == creds.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	// The old refresh token was consumed by rotation.
	if _, err := client.Refresh(ctx, creds.AccessToken, creds.RefreshToken); err == nil {
		t.Fatal("expected replayed refresh token to be rejected")
	}
}

func TestClientRefreshRequiresBearer(t *testing.T) {
	srv, client := newClientForTest(t)
	srv.Seed("a@b.com", "pw", "user")
	ctx := context.Background()

	creds, err := client.Login(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := client.Refresh(ctx, "", creds.RefreshToken); err == nil {
		t.Fatal("expected refresh without bearer credential to fail")
	}
}

func TestClientPasswordResetFlow(t *testing.T) {
	srv, client := newClientForTest(t)
	srv.Seed("a@b.com", "old-pw", "user")
	ctx := context.Background()

	if err := client.ForgotPassword(ctx, "a@b.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	key := srv.IssueResetKey("a@b.com")
	if err := client.ResetPassword(ctx, "new-pw", "new-pw", key); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := client.Login(ctx, "a@b.com", "old-pw"); err == nil {
		t.Fatal("expected old password to be rejected")
	}
	if _, err := client.Login(ctx, "a@b.com", "new-pw"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestClientVerifyAccountRejectsBadKey(t *testing.T) {
	_, client := newClientForTest(t)

	err := client.VerifyAccount(context.Background(), "pw", "pw", "bogus-key")
	authErr := &domain.AuthError{}
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T: %v", err, err)
	}
}
