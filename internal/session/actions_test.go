package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoginUserSuccessPersistsSession(t *testing.T) {
	user := domain.User{ID: 1, Email: "a@b.com", Role: "user"}
	api := &fakeAuthAPI{loginCreds: &domain.Credentials{AccessToken: "t1", RefreshToken: "r1", User: user}}
	env := newTestEnv(t, api)
	ctx := context.Background()

	got, err := env.mgr.LoginUser(ctx, "a@b.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if *got != user {
		t.Fatalf("login user = %+v, want %+v", got, user)
	}
	if v := mustGet(t, env.store, store.KeyAccessToken); v != "t1" {
		t.Fatalf("persisted access token = %q, want t1", v)
	}
	record := env.mgr.GetSession(ctx)
	if record == nil || record.User != user {
		t.Fatalf("persisted session = %+v", record)
	}
}

func TestLoginUserFailureLeavesStorageUntouched(t *testing.T) {
	api := &fakeAuthAPI{loginErr: &domain.AuthError{Message: "Invalid credentials"}}
	env := newTestEnv(t, api)
	ctx := context.Background()

	_, err := env.mgr.LoginUser(ctx, "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected login failure")
	}
	authErr := &domain.AuthError{}
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *domain.AuthError, got %T", err)
	}
	if authErr.Message != "Invalid credentials" {
		t.Fatalf("error message = %q", authErr.Message)
	}

	for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeySession} {
		if _, err := env.store.Get(ctx, key); !errors.Is(err, store.ErrKeyNotFound) {
			t.Fatalf("expected %s absent after failed login, got err=%v", key, err)
		}
	}
}

func TestRegisterUserPersistsSession(t *testing.T) {
	user := domain.User{ID: 2, Email: "new@b.com", Role: "user"}
	api := &fakeAuthAPI{loginCreds: &domain.Credentials{AccessToken: "t1", RefreshToken: "r1", User: user}}
	env := newTestEnv(t, api)

	got, err := env.mgr.RegisterUser(context.Background(), "new@b.com", "pw", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if got.ID != 2 {
		t.Fatalf("registered user = %+v", got)
	}
	if v := mustGet(t, env.store, store.KeyAccessToken); v != "t1" {
		t.Fatalf("persisted access token = %q", v)
	}
}

func TestLogoutUserClearsEverything(t *testing.T) {
	cases := []struct {
		name            string
		seedToken       bool
		remoteErr       error
		wantRemoteCalls int
	}{
		{"remote logout succeeds", true, nil, 1},
		{"remote logout fails", true, errors.New("network down"), 1},
		{"no token to begin with", false, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAuthAPI{logoutErr: tc.remoteErr}
			env := newTestEnv(t, api)
			ctx := context.Background()

			if tc.seedToken {
				env.mgr.SaveSession(ctx, "t1", "r1", domain.User{ID: 1, Email: "a@b.com", Role: "user"})
			}

			env.mgr.LogoutUser(ctx)

			for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeySession} {
				if _, err := env.store.Get(ctx, key); !errors.Is(err, store.ErrKeyNotFound) {
					t.Fatalf("expected %s cleared, got err=%v", key, err)
				}
			}
			if env.clearer.callCount() != 1 {
				t.Fatalf("cache clear called %d times, want 1", env.clearer.callCount())
			}
			if api.logoutCalls != tc.wantRemoteCalls {
				t.Fatalf("remote logout called %d times, want %d", api.logoutCalls, tc.wantRemoteCalls)
			}
		})
	}
}

func TestClearAuthAndRedirect(t *testing.T) {
	t.Run("clears and redirects when state present", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthAPI{})
		ctx := context.Background()
		env.mgr.SaveSession(ctx, "t1", "r1", domain.User{ID: 1, Email: "a@b.com", Role: "user"})

		env.mgr.ClearAuthAndRedirect(ctx)

		for _, key := range []string{store.KeyAccessToken, store.KeyRefreshToken, store.KeySession} {
			if _, err := env.store.Get(ctx, key); !errors.Is(err, store.ErrKeyNotFound) {
				t.Fatalf("expected %s cleared, got err=%v", key, err)
			}
		}
		if *env.redirects != 1 {
			t.Fatalf("redirects = %d, want 1", *env.redirects)
		}
		if env.clearer.callCount() != 1 {
			t.Fatalf("cache clears = %d, want 1", env.clearer.callCount())
		}
	})

	t.Run("no-op when already clean", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthAPI{})
		ctx := context.Background()

		env.mgr.ClearAuthAndRedirect(ctx)
		env.mgr.ClearAuthAndRedirect(ctx)

		if *env.redirects != 0 {
			t.Fatalf("redirects = %d, want 0", *env.redirects)
		}
		if env.clearer.callCount() != 0 {
			t.Fatalf("cache clears = %d, want 0", env.clearer.callCount())
		}
	})

	t.Run("partial state still clears", func(t *testing.T) {
		env := newTestEnv(t, &fakeAuthAPI{})
		ctx := context.Background()
		mustSet(t, env.store, store.KeyRefreshToken, "orphaned")

		env.mgr.ClearAuthAndRedirect(ctx)

		if *env.redirects != 1 {
			t.Fatalf("redirects = %d, want 1", *env.redirects)
		}
		if _, err := env.store.Get(ctx, store.KeyRefreshToken); !errors.Is(err, store.ErrKeyNotFound) {
			t.Fatal("expected orphaned refresh token cleared")
		}
	})
}
