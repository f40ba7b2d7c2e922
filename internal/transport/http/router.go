package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"userauth/internal/observability/middleware"
	"userauth/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables the per-IP limit
	TrustProxy         bool
	RequestTimeout     time.Duration
}

func NewRouter(auth service.AuthService, tokens TokenVerifier, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	h := NewHandler(auth, tokens, logger, cfg.TrustProxy)

	r := chi.NewRouter()

	r.Use(middleware.WithRequestAndTrace)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   originsIfSet(cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.HeaderRequestID, middleware.HeaderTraceID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.WithMetrics)

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/v1/oauth/jwks", h.jwks)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/authenticate", h.authenticate)
		r.Get("/activate-account", h.activate)
		r.With(BearerAuth(tokens, logger)).Get("/me", h.me)
	})

	return r
}

func originsIfSet(in []string) []string {
	out := []string{}
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
