package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/metrics"
)

type RouterOptions struct {
	Verifier    *TokenVerifier // nil = mode dev (X-User-ID)
	CORSOrigins []string
	RateLimit   int // 0 = pas de limite sur les mutations
	RateWindow  time.Duration
}

// NewRouter monte les routes /v1 derrière l'auth, plus /healthz et /metrics.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	mutations := func(next http.Handler) http.Handler { return next }
	if opts.RateLimit > 0 {
		mutations = httprate.LimitByIP(opts.RateLimit, opts.RateWindow)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(Middleware(opts.Verifier))

		r.Route("/users/{id}", func(r chi.Router) {
			r.With(mutations).Post("/follow", h.follow)
			r.With(mutations).Delete("/follow", h.unfollow)
			r.Get("/followers", h.followers)
			r.Get("/following", h.following)
			r.Get("/relation", h.relation)
			r.With(callerDeadline).Get("/posts", h.userPosts)
		})

		r.With(mutations).Post("/posts", h.createPost)
		r.Route("/posts/{id}", func(r chi.Router) {
			r.Get("/", h.getPost)
			r.With(callerDeadline).Get("/comments", h.listComments)
			r.With(mutations).Post("/comments", h.createComment)
			r.With(mutations).Post("/like", h.toggleLike)
		})

		r.With(callerDeadline).Get("/feed", h.getFeed)

		r.Route("/notifications", func(r chi.Router) {
			r.With(callerDeadline).Get("/", h.listNotifications)
			r.With(callerDeadline).Get("/unread-count", h.unreadCount)
			r.With(callerDeadline).Get("/{id}", h.getNotification)
			r.Post("/read-all", h.markAllRead)
			r.Post("/{id}/read", h.markRead)
			r.Delete("/{id}/read", h.markUnread)
		})
	})

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "baggage", "traceparent"},
	})

	// OTEL HTTP (Racine)
	return otelhttp.NewHandler(c.Handler(r), "social-service", otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))
}

// maxCallerTimeout plafonne ?timeout= : un client ne peut pas allonger une lecture.
const maxCallerTimeout = 30 * time.Second

// callerDeadline applique le ?timeout= optionnel (durée Go, ex. "250ms") au
// contexte de la requête. Un dépassement remonte en 504 via writeError.
func callerDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("timeout")
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			writeError(w, r, validationError("timeout must be a positive duration such as 500ms"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), min(d, maxCallerTimeout))
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// instrument alimente les métriques HTTP avec le pattern de route chi (cardinalité bornée).
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
