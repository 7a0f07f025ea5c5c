package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mealmesh/marketplace/pkg/logger"
)

const userIDHeader = "X-User-ID"

// RequestLogger stores a request-scoped logger in the context, enriched
// with the correlation ID, the caller's user ID, and trace identifiers.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if uid := r.Header.Get(userIDHeader); uid != "" {
				ctx = logger.WithUserID(ctx, uid)
			}
			l := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
