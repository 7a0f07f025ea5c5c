package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/mealmesh/marketplace/pkg/errors"
	"github.com/mealmesh/marketplace/pkg/httputil"
)

// Recovery converts panics into 500 responses and logs the stack.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)
					httputil.WriteError(w, r,
						apperrors.Internal(nil),
						"an internal error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
