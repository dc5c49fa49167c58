package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/accounts-service/internal/auth"
	"github.com/gokatarajesh/accounts-service/internal/config"
	"github.com/gokatarajesh/accounts-service/internal/logging"
	"github.com/gokatarajesh/accounts-service/internal/oauth"
	httperrors "github.com/gokatarajesh/accounts-service/pkg/http/errors"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the pieces the router mounts. Nil handler groups are
// skipped.
type Dependencies struct {
	AuthService   *auth.Service
	AuthHandlers  *auth.HTTPHandlers
	OAuthHandlers *oauth.HTTPHandlers

	// Checks are pinged by /api/ping, keyed by name.
	Checks map[string]Pinger

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// NewHTTPServer wires the API routes onto an http.Server bound to cfg.HTTPAddr.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the chi router with health, metrics and API routes.
func NewRouter(logger zerolog.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pingDependencies(ctx, deps.Checks); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeServiceUnavailable, "upstream error")
			return
		}
		httperrors.RespondJSON(w, http.StatusOK, map[string]bool{"pong": true})
	})

	r.Route("/api/accounts", func(r chi.Router) {
		if h := deps.OAuthHandlers; h != nil {
			r.Get("/oauth2/providers", h.Providers)
			r.Post("/oauth2/authorize", h.Authorize)
			r.Post("/oauth2/callback", h.Callback)
		}

		h := deps.AuthHandlers
		if h == nil || deps.AuthService == nil {
			return
		}
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(deps.AuthService, logger), auth.RequireAuth)
			r.Get("/users/me", h.GetMe)
			r.Put("/users/me", h.UpdateMe)
			r.Delete("/users/me", h.DeleteMe)
		})
		r.Get("/users/{id}", h.GetUser)
	})

	if h := deps.AuthHandlers; h != nil && deps.AuthService != nil {
		r.Post("/api/token/refresh/", h.RefreshToken)
		r.Post("/api/token/verify/", h.VerifyToken)
	}

	return r
}

func pingDependencies(ctx context.Context, checks map[string]Pinger) error {
	for name, p := range checks {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("ping %s: %w", name, err)
		}
	}
	return nil
}

// requestLogger puts a request-scoped logger in the context and logs each
// completed request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ev := reqLogger.Info()
			if status >= http.StatusInternalServerError {
				ev = reqLogger.Error()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}
