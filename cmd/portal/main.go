package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/streamly/portal/internal/adapter/cache"
	"github.com/streamly/portal/internal/adapter/idp"
	"github.com/streamly/portal/internal/adapter/search"
	"github.com/streamly/portal/internal/config"
	httptransport "github.com/streamly/portal/internal/http"
	"github.com/streamly/portal/internal/http/handler"
	httpmiddleware "github.com/streamly/portal/internal/http/middleware"
	"github.com/streamly/portal/internal/repository"
	"github.com/streamly/portal/internal/server"
	"github.com/streamly/portal/internal/service"
	"github.com/streamly/portal/internal/telemetry"
	"github.com/streamly/portal/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newPGXPool,
			newRedisClient,
			newRedisStore,
			newProfileStore,
			newProfileCache,
			newTenantCache,
			newTokenClient,
			newAssertionSource,
			newAdminClient,
			newIdentityGateway,
			newKeyIssuer,
			newKeyScoper,
			newVerifier,
			newProfileService,
			newPortalService,
			newRateLimiter,
			newAuthMiddleware,
			newPortalHandler,
			newProfileHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newRedisStore(client redis.UniversalClient) *cacheadapter.RedisStore {
	return cacheadapter.NewRedisStore(client)
}

func newProfileStore(pool *pgxpool.Pool) repository.ProfileStore {
	return repository.NewPostgresProfileStore(pool)
}

func newProfileCache(store *cacheadapter.RedisStore) repository.ProfileCache {
	return store
}

func newTenantCache(store *cacheadapter.RedisStore) repository.TenantCache {
	return store
}

func newTokenClient(cfg config.Config) *idp.TokenClient {
	return idp.NewTokenClient(nil, cfg.IdPEndpoint, cfg.IdPClientID, cfg.IdPClientSecret, cfg.BaseURL)
}

func newAssertionSource(cfg config.Config) (*idp.AssertionSource, error) {
	return idp.NewAssertionSource(cfg.IdPProjectID, cfg.AdminKeyID, cfg.AdminPrivateKeyPEM)
}

func newAdminClient(cfg config.Config, assertions *idp.AssertionSource) *idp.AdminClient {
	return idp.NewAdminClient(cfg.AdminGraphQLEndpoint, assertions, nil)
}

func newIdentityGateway(client *idp.AdminClient) service.IdentityGateway {
	return client
}

func newKeyIssuer(cfg config.Config) (*search.KeyIssuer, error) {
	return search.NewKeyIssuer(cfg.TypesenseHost, cfg.TypesenseAdminKey, cfg.TypesenseSearchKey)
}

func newKeyScoper(issuer *search.KeyIssuer) service.KeyScoper {
	return issuer
}

func newVerifier(cfg config.Config) *token.Verifier {
	return token.NewVerifier(cfg.IdPEndpoint, nil)
}

func newProfileService(cache repository.ProfileCache, store repository.ProfileStore, gateway service.IdentityGateway, logger *zap.Logger) *service.ProfileService {
	return service.NewProfileService(cache, store, gateway, logger)
}

func newPortalService(tenants repository.TenantCache, keys service.KeyScoper, logger *zap.Logger) *service.PortalService {
	return service.NewPortalService(tenants, keys, logger)
}

func newRateLimiter(cfg config.Config) *httpmiddleware.RateLimiter {
	return httpmiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthMiddleware(verifier *token.Verifier) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Verifier: verifier}
}

func newPortalHandler(portal *service.PortalService, logger *zap.Logger) *handler.PortalHandler {
	return handler.NewPortalHandler(portal, logger)
}

func newProfileHandler(tokens *idp.TokenClient, profiles *service.ProfileService, cfg config.Config, logger *zap.Logger) *handler.ProfileHandler {
	return handler.NewProfileHandler(tokens, profiles, cfg.AuthRelayHost, cfg.CookieTTL, logger)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
