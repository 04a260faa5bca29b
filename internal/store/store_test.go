package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreForTest(t *testing.T) *RedisStore {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return NewRedisStore(client, "authkit-test")
}

func newSQLiteStoreForTest(t *testing.T) *GormStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return s
}

func TestKeyValueStoreConformance(t *testing.T) {
	backends := []struct {
		name string
		make func(t *testing.T) KeyValueStore
	}{
		{"memory", func(t *testing.T) KeyValueStore { return NewMemoryStore() }},
		{"redis", func(t *testing.T) KeyValueStore { return newRedisStoreForTest(t) }},
		{"sqlite", func(t *testing.T) KeyValueStore { return newSQLiteStoreForTest(t) }},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.make(t)
			ctx := context.Background()

			if _, err := s.Get(ctx, KeyAccessToken); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("expected ErrKeyNotFound for absent key, got %v", err)
			}

			if err := s.Set(ctx, KeyAccessToken, "t1"); err != nil {
				t.Fatalf("set: %v", err)
			}
			v, err := s.Get(ctx, KeyAccessToken)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if v != "t1" {
				t.Fatalf("get = %q, want t1", v)
			}

			if err := s.Set(ctx, KeyAccessToken, "t2"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, err = s.Get(ctx, KeyAccessToken)
			if err != nil {
				t.Fatalf("get after overwrite: %v", err)
			}
			if v != "t2" {
				t.Fatalf("get = %q, want t2", v)
			}

			if err := s.Delete(ctx, KeyAccessToken); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.Get(ctx, KeyAccessToken); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
			}

			// Deleting an absent key is not an error.
			if err := s.Delete(ctx, KeyRefreshToken); err != nil {
				t.Fatalf("delete absent key: %v", err)
			}
		})
	}
}

func TestRedisStoreKeysArePrefixed(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	s := NewRedisStore(client, "deviceA")
	if err := s.Set(context.Background(), KeySession, "ciphertext"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := server.Get("deviceA:session"); err != nil {
		t.Fatalf("expected prefixed key in redis: %v", err)
	}
}
