package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/store"
)

// SessionGuard is the slice of the session manager the transport layer
// depends on.
type SessionGuard interface {
	EnsureValidToken(ctx context.Context) domain.TokenStatus
	ClearAuthAndRedirect(ctx context.Context)
}

// ErrSessionExpired is returned when the access token is expired and could
// not be refreshed. By the time a caller sees it, forced logout has already
// been triggered.
var ErrSessionExpired = errors.New("session expired and refresh failed")

// AuthorizedTransport is the outgoing-request authorization hook: before
// each request it asks the session manager for a usable token and attaches
// it as a bearer credential. Anonymous requests (no token persisted) pass
// through untouched. An unrefreshable expired token escalates to forced
// logout and fails the request.
type AuthorizedTransport struct {
	Base   http.RoundTripper
	Guard  SessionGuard
	Tokens store.KeyValueStore
}

func NewAuthorizedTransport(base http.RoundTripper, guard SessionGuard, tokens store.KeyValueStore) *AuthorizedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &AuthorizedTransport{Base: base, Guard: guard, Tokens: tokens}
}

func (t *AuthorizedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.Guard.EnsureValidToken(req.Context()) {
	case domain.TokenMissing:
		return t.Base.RoundTrip(req)
	case domain.TokenExpired:
		t.Guard.ClearAuthAndRedirect(req.Context())
		return nil, ErrSessionExpired
	}

	access, err := t.Tokens.Get(req.Context(), store.KeyAccessToken)
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+access)
	return t.Base.RoundTrip(clone)
}
