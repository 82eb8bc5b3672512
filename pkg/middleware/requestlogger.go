package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
)

// UserIDFunc reports the id of the signed-in user, or "" when nobody is.
type UserIDFunc func(ctx context.Context) string

// RequestLogger stores a request-scoped logger in the context, enriched with
// the correlation id, the signed-in user and the active span. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger, userID UserIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID != nil {
				if id := userID(ctx); id != "" {
					ctx = logger.WithUserID(ctx, id)
				}
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
