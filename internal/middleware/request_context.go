package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/logging"
)

type contextKey string

const (
	requestIDKey   contextKey = "requestID"
	requestInfoKey contextKey = "requestInfo"
	loggerKey      contextKey = "logger"
	clientIPKey    contextKey = "clientIP"
)

const RequestIDHeader = "X-Request-ID"

// requestInfo is filled in after authentication, which runs further down the
// chain, so the access log can see who made the request.
type requestInfo struct {
	userID   string
	tenantID string
	role     string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

// RequestContext adds request ID, client IP and a request-scoped logger to the context.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx = context.WithValue(ctx, requestIDKey, requestID)

		clientIP := getClientIP(r)
		ctx = context.WithValue(ctx, clientIPKey, clientIP)
		ctx = context.WithValue(ctx, requestInfoKey, &requestInfo{})

		logger := logging.With(
			"request_id", requestID,
			"client_ip", clientIP,
		)
		ctx = context.WithValue(ctx, loggerKey, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalLogger attaches the authenticated principal to the request logger.
// It must run after authentication.
func PrincipalLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.GetPrincipal(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if info := requestInfoFrom(r.Context()); info != nil {
			info.userID = p.UserID.String()
			info.tenantID = p.TenantID
			info.role = string(p.Role)
		}

		logger := GetLoggerFromContext(r.Context()).With(
			"user_id", p.UserID.String(),
			"tenant_id", p.TenantID,
			"role", string(p.Role),
		)
		ctx := context.WithValue(r.Context(), loggerKey, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return logging.Logger()
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey).(string); ok {
		return ip
	}
	return ""
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// first hop is the client
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
