package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// logs HTTP requests and responses with the request-scoped logger
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// handlers that never write still answer 200
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		logger := GetLoggerFromContext(r.Context())
		if info := requestInfoFrom(r.Context()); info != nil && info.userID != "" {
			logger = logger.With("user_id", info.userID, "tenant_id", info.tenantID, "role", info.role)
		}

		logAttrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
		}

		switch {
		case status >= 500:
			logger.Error("Request completed with server error", logAttrs...)
		case status >= 400:
			logger.Warn("Request completed with client error", logAttrs...)
		default:
			logger.Info("Request completed", logAttrs...)
		}
	})
}
