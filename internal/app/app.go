package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/accounts-service/internal/auth"
	"github.com/gokatarajesh/accounts-service/internal/auth/jwt"
	"github.com/gokatarajesh/accounts-service/internal/cache"
	"github.com/gokatarajesh/accounts-service/internal/config"
	"github.com/gokatarajesh/accounts-service/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
	"github.com/gokatarajesh/accounts-service/internal/logging"
	"github.com/gokatarajesh/accounts-service/internal/oauth"
	"github.com/gokatarajesh/accounts-service/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	cache cache.Store
	http  *http.Server
}

// New bootstraps the logger, user store, cache and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().
		Str("store", cfg.Storage.Driver).
		Str("cache", cfg.Cache.Driver).
		Msg("starting application bootstrap")

	checks := map[string]server.Pinger{}

	var (
		pool  *pgxpool.Pool
		users *repository.UserRepository
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		var err error
		pool, err = pgxpool.New(ctx, cfg.Postgres.PoolDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		users = repository.NewUserRepository(sqlcgen.New(pool))
		checks["postgres"] = pool
	default:
		logger.Warn().Msg("using in-memory user store; data is lost on restart")
		users = repository.NewUserRepository(repository.NewMemoryStore())
	}

	var store cache.Store
	switch cfg.Cache.Driver {
	case config.DriverRedis:
		store = cache.NewRedis(redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			PoolSize: cfg.Cache.PoolSize,
		}), "")
	default:
		logger.Warn().Msg("using in-memory cache; oauth2 state is not shared between instances")
		store = cache.NewMemory(cfg.OAuth.StateTTL)
	}
	checks["cache"] = store

	authSvc := auth.NewService(users, tokenConfig(cfg), logging.Component(logger, "auth"))

	metrics, err := oauth.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		closeQuietly(pool, store, logger)
		return nil, fmt.Errorf("register oauth2 metrics: %w", err)
	}

	oauthLogger := logging.Component(logger, "oauth2")
	flow := oauth.NewFlow(
		oauth.NewResolver(oauth.DefaultRegistry(), oauth.EnvSource{}),
		oauth.NewClient(&http.Client{Timeout: cfg.OAuth.HTTPTimeout}, oauthLogger),
		oauth.NewStateStore(store, cfg.OAuth.StateTTL),
		authSvc,
		oauth.FlowOptions{RequireState: cfg.OAuth.RequireState, Metrics: metrics},
		oauthLogger,
	)

	if len(flow.Providers()) == 0 {
		logger.Warn().Msg("no oauth2 provider credentials configured")
	}

	apiServer := server.NewHTTPServer(cfg, logger, server.Dependencies{
		AuthService:   authSvc,
		AuthHandlers:  auth.NewHTTPHandlers(authSvc, logging.Component(logger, "auth")),
		OAuthHandlers: oauth.NewHTTPHandlers(flow, oauthLogger),
		Checks:        checks,
	})

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		cache:  store,
		http:   apiServer,
	}, nil
}

func tokenConfig(cfg *config.App) jwt.TokenConfig {
	issuer := cfg.Security.Issuer
	if issuer == "" {
		issuer = cfg.Name
	}
	return jwt.TokenConfig{
		AccessSecret:  []byte(cfg.Security.JWTSecret),
		RefreshSecret: []byte(cfg.Security.JWTRefreshSecret),
		AccessTTL:     cfg.Security.AccessTTL,
		RefreshTTL:    cfg.Security.RefreshTTL,
		Issuer:        issuer,
	}
}

// Run serves HTTP until ctx is canceled or a termination signal arrives,
// then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("http shutdown error")
		}
		return nil
	})

	err := g.Wait()
	closeQuietly(a.pool, a.cache, a.logger)
	a.logger.Info().Msg("shutdown complete")
	return err
}

func closeQuietly(pool *pgxpool.Pool, store cache.Store, logger zerolog.Logger) {
	if pool != nil {
		pool.Close()
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("cache shutdown error")
		}
	}
}
