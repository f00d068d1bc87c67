package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	// RateLimit is how many requests one IP may make per RateWindow. Zero disables it.
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
}

// NewRouter mounts the public API under /api/v1 next to /healthz and /metrics.
// The whole tree is wrapped by otelhttp so every request opens a server span.
func NewRouter(h *Handler, identity ports.IdentityProvider, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "baggage", "traceparent"},
		}).Handler)
		if cfg.RateLimit > 0 {
			r.Use(httprate.Limit(cfg.RateLimit, cfg.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, r, domain.ErrRateLimited)
				}),
			))
		}
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		r.Use(Authenticator(identity))

		r.Get("/feed", h.Home)
		r.Get("/search", h.Search)
		r.Get("/creators/{id}/content", h.ByCreator)

		r.Post("/content", h.CreateContent)
		r.Route("/content/{id}", func(r chi.Router) {
			r.Get("/", h.GetContent)
			r.Delete("/", h.DeleteContent)
			r.Get("/state", h.ContentState)

			r.Post("/likes", h.CreateInteraction(domain.InteractionLike))
			r.Delete("/likes", h.WithdrawInteraction(domain.InteractionLike))
			r.Post("/hides", h.CreateInteraction(domain.InteractionHide))
			r.Delete("/hides", h.WithdrawInteraction(domain.InteractionHide))
			r.Post("/reports", h.CreateInteraction(domain.InteractionReport))
			r.Delete("/reports", h.WithdrawInteraction(domain.InteractionReport))

			r.Get("/comments", h.ListComments)
			r.Post("/comments", h.CreateComment)
		})
		r.Delete("/comments/{id}", h.DeleteComment)

		// {id} is not checked against a user directory: the username
		// projection can lag identity, so an unknown id is accepted.
		r.Route("/users/{id}", func(r chi.Router) {
			r.Post("/follow", h.CreateInteraction(domain.InteractionFollow))
			r.Delete("/follow", h.WithdrawInteraction(domain.InteractionFollow))
			r.Post("/block", h.CreateInteraction(domain.InteractionBlock))
			r.Delete("/block", h.WithdrawInteraction(domain.InteractionBlock))
		})

		r.Delete("/interactions/{id}", h.DeleteInteraction)
	})

	return otelhttp.NewHandler(r, "discovery-http", otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))
}
