package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/metrics"
)

// Private context key, avoids collisions with other packages.
type contextKey struct{ name string }

var viewerCtxKey = &contextKey{"viewer"}

// Authenticator resolves the optional bearer token into a viewer.
// No header means an anonymous viewer; a bad header or token is a 401.
func Authenticator(identity ports.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), domain.Anonymous)))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, r, domain.ErrUnauthenticated)
				return
			}

			viewer, err := identity.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				writeError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
		})
	}
}

func WithViewer(ctx context.Context, v domain.ViewerContext) context.Context {
	return context.WithValue(ctx, viewerCtxKey, v)
}

// ViewerFromContext returns the anonymous viewer when nothing was stored.
func ViewerFromContext(ctx context.Context) domain.ViewerContext {
	v, _ := ctx.Value(viewerCtxKey).(domain.ViewerContext)
	return v
}

// instrument records one sample per request, labelled by route pattern
// rather than raw path so ids do not explode the label set.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}
