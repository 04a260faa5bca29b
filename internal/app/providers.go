package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/userdeck/authkit/internal/cache"
	"github.com/userdeck/authkit/internal/config"
	"github.com/userdeck/authkit/internal/observability"
	"github.com/userdeck/authkit/internal/security"
	"github.com/userdeck/authkit/internal/session"
	"github.com/userdeck/authkit/internal/store"
	"github.com/userdeck/authkit/internal/transport"
)

// ProviderSet assembles a ready-to-use App from the environment config.
var ProviderSet = wire.NewSet(
	config.Load,
	ProvideLogger,
	ProvideRuntime,
	ProvideStore,
	ProvideCrypter,
	ProvideAuthAPI,
	ProvideClearer,
	ProvideRedirector,
	ProvideManager,
	New,
)

func ProvideLogger(ctx context.Context, cfg *config.Config) (*slog.Logger, *sdklog.LoggerProvider, error) {
	logger, provider, err := observability.InitLogging(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, provider, nil
}

func ProvideRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, loggerProvider *sdklog.LoggerProvider) (*observability.Runtime, func(), error) {
	runtime, err := observability.InitRuntime(ctx, cfg, logger, loggerProvider)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := runtime.Shutdown(context.Background()); err != nil {
			logger.Warn("observability shutdown", "error", err)
		}
	}
	return runtime, cleanup, nil
}

func ProvideStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.KeyValueStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreBackendSQLite:
		s, err := store.NewSQLiteStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StoreBackendPostgres:
		s, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StoreBackendRedis:
		client, err := newRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client, "authkit"), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func ProvideCrypter(cfg *config.Config) (security.Crypter, error) {
	return security.NewAESGCMCrypter(cfg.SessionPassphrase)
}

func ProvideAuthAPI(cfg *config.Config, logger *slog.Logger) session.AuthAPI {
	return transport.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
}

func ProvideClearer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Clearer, func(), error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryQueryCache(), func() {}, nil
	}
	client, err := newRedisClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisQueryCache(client, cfg.CachePrefix), func() { _ = client.Close() }, nil
}

func ProvideRedirector(cfg *config.Config, logger *slog.Logger) session.Redirector {
	return session.RedirectorFunc(func() {
		logger.Info("session ended, sign in again", "login_url", cfg.LoginURL)
	})
}

func ProvideManager(kv store.KeyValueStore, crypter security.Crypter, api session.AuthAPI, clearer cache.Clearer, redirect session.Redirector, logger *slog.Logger) *session.Manager {
	return session.NewManager(kv, crypter, api, clearer, redirect, logger)
}

func newRedisClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Debug("redis client connected", "addr", opts.Addr)
	return client, nil
}
