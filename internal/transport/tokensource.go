package transport

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/security"
	"github.com/userdeck/authkit/internal/store"
)

// TokenSource adapts the session manager to oauth2.TokenSource so any
// oauth2-aware HTTP client can ride on the managed credential. Refreshing
// stays the manager's job; this adapter never mints tokens itself.
type TokenSource struct {
	guard  SessionGuard
	tokens store.KeyValueStore
	ctx    context.Context
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

func NewTokenSource(ctx context.Context, guard SessionGuard, tokens store.KeyValueStore) *TokenSource {
	return &TokenSource{guard: guard, tokens: tokens, ctx: ctx}
}

func (s *TokenSource) Token() (*oauth2.Token, error) {
	switch s.guard.EnsureValidToken(s.ctx) {
	case domain.TokenMissing:
		return nil, fmt.Errorf("no access token persisted")
	case domain.TokenExpired:
		return nil, ErrSessionExpired
	}

	access, err := s.tokens.Get(s.ctx, store.KeyAccessToken)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if exp, err := security.TokenExpiry(access); err == nil {
		tok.Expiry = exp
	}
	return tok, nil
}
