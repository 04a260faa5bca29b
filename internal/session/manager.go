package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/userdeck/authkit/internal/cache"
	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/observability"
	"github.com/userdeck/authkit/internal/security"
	"github.com/userdeck/authkit/internal/store"
)

const refreshFlightKey = "jwt-refresh"

// Manager is the single source of truth for "is there a usable credential
// right now" and the only writer of persisted auth state. All state is
// constructor-scoped so independent instances never interfere.
//
// No storage, crypto or network failure escapes its public boundary;
// failures are logged and collapse to benign return values.
type Manager struct {
	store    store.KeyValueStore
	crypter  security.Crypter
	api      AuthAPI
	cache    cache.Clearer
	redirect Redirector
	logger   *slog.Logger
	tracer   trace.Tracer

	refreshFlight singleflight.Group
}

func NewManager(kv store.KeyValueStore, crypter security.Crypter, api AuthAPI, clearer cache.Clearer, redirect Redirector, logger *slog.Logger) *Manager {
	if clearer == nil {
		clearer = cache.NewNoopClearer()
	}
	if redirect == nil {
		redirect = RedirectorFunc(func() {})
	}
	return &Manager{
		store:    kv,
		crypter:  crypter,
		api:      api,
		cache:    clearer,
		redirect: redirect,
		logger:   logger,
		tracer:   otel.Tracer("authkit/session"),
	}
}

// GetSession reads, decrypts and parses the persisted session record. Any
// failure along the way means "no session": the caller sees nil, the cause
// only shows up in the log.
func (m *Manager) GetSession(ctx context.Context) *domain.SessionRecord {
	blob, err := m.store.Get(ctx, store.KeySession)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("read session record", "error", err)
		}
		return nil
	}
	plaintext, err := m.crypter.Decrypt(blob)
	if err != nil {
		m.logger.Warn("decrypt session record", "error", err)
		return nil
	}
	record := &domain.SessionRecord{}
	if err := json.Unmarshal(plaintext, record); err != nil {
		m.logger.Warn("parse session record", "error", err)
		return nil
	}
	return record
}

// SaveSession persists the token pair in plaintext first, then the
// encrypted session record. A failing blob write never takes the tokens
// down with it.
func (m *Manager) SaveSession(ctx context.Context, accessToken, refreshToken string, user domain.User) {
	if err := m.store.Set(ctx, store.KeyAccessToken, accessToken); err != nil {
		m.logger.Warn("persist access token", "error", err)
	}
	if err := m.store.Set(ctx, store.KeyRefreshToken, refreshToken); err != nil {
		m.logger.Warn("persist refresh token", "error", err)
	}

	plaintext, err := json.Marshal(domain.SessionRecord{User: user})
	if err != nil {
		m.logger.Warn("serialize session record", "error", err)
		return
	}
	blob, err := m.crypter.Encrypt(plaintext)
	if err != nil {
		m.logger.Warn("encrypt session record", "error", err)
		return
	}
	if err := m.store.Set(ctx, store.KeySession, blob); err != nil {
		m.logger.Warn("persist session record", "error", err)
	}
}

// EnsureValidToken is called before every outgoing authenticated request.
// A token expiring within the 30-second buffer counts as expired. An
// expired token with a usable refresh token triggers a refresh; concurrent
// callers share a single in-flight refresh and its outcome, and the shared
// handle is dropped once the call settles so the next expiry starts fresh.
//
// On refresh failure the persisted tokens are left untouched; escalating to
// a forced logout is the caller's contract, not this method's.
func (m *Manager) EnsureValidToken(ctx context.Context) domain.TokenStatus {
	access, err := m.store.Get(ctx, store.KeyAccessToken)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("read access token", "error", err)
		}
		return domain.TokenMissing
	}
	if security.TokenFresh(access, time.Now()) {
		return domain.TokenValid
	}

	if _, err := m.store.Get(ctx, store.KeyRefreshToken); err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			m.logger.Warn("read refresh token", "error", err)
		}
		return domain.TokenExpired
	}

	// A caller that observed a stale token may reach the flight only after
	// another caller's refresh has settled. Both tokens are re-read under
	// the flight so the late caller rides the renewed token instead of
	// replaying an already-consumed refresh grant.
	renewed, _, _ := m.refreshFlight.Do(refreshFlightKey, func() (any, error) {
		access, err := m.store.Get(ctx, store.KeyAccessToken)
		if err != nil {
			if !errors.Is(err, store.ErrKeyNotFound) {
				m.logger.Warn("read access token", "error", err)
			}
			return false, nil
		}
		if security.TokenFresh(access, time.Now()) {
			return true, nil
		}
		refreshToken, err := m.store.Get(ctx, store.KeyRefreshToken)
		if err != nil {
			if !errors.Is(err, store.ErrKeyNotFound) {
				m.logger.Warn("read refresh token", "error", err)
			}
			return false, nil
		}
		return m.refreshTokens(ctx, access, refreshToken), nil
	})
	if renewed.(bool) {
		return domain.TokenValid
	}
	return domain.TokenExpired
}

func (m *Manager) refreshTokens(ctx context.Context, accessToken, refreshToken string) bool {
	ctx, span := m.tracer.Start(ctx, "session.refresh")
	defer span.End()

	pair, err := m.api.Refresh(ctx, accessToken, refreshToken)
	if err != nil {
		span.SetAttributes(attribute.String("outcome", "failure"))
		observability.RecordAuthRefresh("failure")
		m.logger.Warn("refresh token pair", "error", err)
		return false
	}
	if err := m.store.Set(ctx, store.KeyAccessToken, pair.AccessToken); err != nil {
		span.SetAttributes(attribute.String("outcome", "failure"))
		observability.RecordAuthRefresh("failure")
		m.logger.Warn("persist refreshed access token", "error", err)
		return false
	}
	if err := m.store.Set(ctx, store.KeyRefreshToken, pair.RefreshToken); err != nil {
		m.logger.Warn("persist refreshed refresh token", "error", err)
	}
	span.SetAttributes(attribute.String("outcome", "success"))
	observability.RecordAuthRefresh("success")
	return true
}

// clearLocalState removes the token pair and session blob, then clears the
// downstream API cache so no authenticated data leaks into the next
// session.
func (m *Manager) clearLocalState(ctx context.Context) {
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeySession} {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("clear auth state", "key", key, "error", err)
		}
	}
	if err := m.cache.Clear(ctx); err != nil {
		m.logger.Warn("clear api cache", "error", err)
	}
}

func (m *Manager) hasAnyAuthState(ctx context.Context) bool {
	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeySession} {
		if _, err := m.store.Get(ctx, key); err == nil {
			return true
		}
	}
	return false
}
