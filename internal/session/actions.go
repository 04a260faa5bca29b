package session

import (
	"context"
	"errors"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/observability"
	"github.com/userdeck/authkit/internal/store"
)

// LoginUser authenticates against the login endpoint. On success the
// session is persisted before the user is returned. Failures surface the
// server's error payload as *domain.AuthError, untransformed and unretried.
func (m *Manager) LoginUser(ctx context.Context, email, password string) (*domain.User, error) {
	creds, err := m.api.Login(ctx, email, password)
	if err != nil {
		observability.RecordAuthLogin("password", "failure")
		return nil, err
	}
	m.SaveSession(ctx, creds.AccessToken, creds.RefreshToken, creds.User)
	observability.RecordAuthLogin("password", "success")
	user := creds.User
	return &user, nil
}

// RegisterUser mirrors LoginUser against the register endpoint.
func (m *Manager) RegisterUser(ctx context.Context, email, password, confirmPassword string) (*domain.User, error) {
	creds, err := m.api.Register(ctx, email, password, confirmPassword)
	if err != nil {
		observability.RecordAuthLogin("register", "failure")
		return nil, err
	}
	m.SaveSession(ctx, creds.AccessToken, creds.RefreshToken, creds.User)
	observability.RecordAuthLogin("register", "success")
	user := creds.User
	return &user, nil
}

func (m *Manager) ForgotUserPassword(ctx context.Context, email string) error {
	return m.api.ForgotPassword(ctx, email)
}

func (m *Manager) ResetUserPassword(ctx context.Context, password, confirmPassword, key string) error {
	return m.api.ResetPassword(ctx, password, confirmPassword, key)
}

func (m *Manager) VerifyUserAccount(ctx context.Context, password, confirmPassword, key string) error {
	return m.api.VerifyAccount(ctx, password, confirmPassword, key)
}

// LogoutUser revokes the session remotely on a best-effort basis, then
// unconditionally clears local auth state and the API cache. A failed or
// unreachable logout endpoint never leaves the device authenticated.
func (m *Manager) LogoutUser(ctx context.Context) {
	access, err := m.store.Get(ctx, store.KeyAccessToken)
	if err == nil && access != "" {
		if err := m.api.Logout(ctx, access); err != nil {
			m.logger.Warn("remote logout", "error", err)
		}
	} else if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		m.logger.Warn("read access token for logout", "error", err)
	}

	m.clearLocalState(ctx)
	observability.RecordAuthLogout("success")
}

// ClearAuthAndRedirect is the forced-logout path, invoked by the transport
// layer when the server reports an authorization failure mid-session. It is
// idempotent: with no auth state present it neither clears nor redirects.
func (m *Manager) ClearAuthAndRedirect(ctx context.Context) {
	if !m.hasAnyAuthState(ctx) {
		return
	}
	m.clearLocalState(ctx)
	observability.RecordForcedLogout()
	m.redirect.RedirectToLogin()
}
