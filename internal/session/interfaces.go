package session

import (
	"context"

	"github.com/userdeck/authkit/internal/domain"
)

// AuthAPI is the remote auth surface the manager talks to. Implemented by
// transport.Client; tests substitute in-memory fakes.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.Credentials, error)
	Register(ctx context.Context, email, password, confirmPassword string) (*domain.Credentials, error)
	Logout(ctx context.Context, accessToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, password, confirmPassword, key string) error
	VerifyAccount(ctx context.Context, password, confirmPassword, key string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*domain.TokenPair, error)
}

// Redirector navigates the surrounding application to its login entry
// point after a forced logout.
type Redirector interface {
	RedirectToLogin()
}

type RedirectorFunc func()

func (f RedirectorFunc) RedirectToLogin() { f() }
