package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthCheck(t *testing.T) {
	server := NewServer(pingDB{}, nil, nil, nil, nil, nil)

	t.Run("returns 200 OK with timestamp", func(t *testing.T) {
		resp := testutil.Serve(t, server.HealthCheck, t.Context(), testutil.Request{Method: http.MethodGet, Path: "/health"})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "ok", resp.Body["status"])
		testutil.AssertJSONExists(t, resp, "timestamp")
	})
}

func TestServer_ReadinessCheck(t *testing.T) {
	t.Run("ready when database and redis answer", func(t *testing.T) {
		authService := testutil.NewMockAuthService(t)
		authService.ExpectPing(nil)
		server := NewServer(pingDB{}, authService, nil, nil, nil, nil)

		resp := testutil.Serve(t, server.ReadinessCheck, t.Context(), testutil.Request{Method: http.MethodGet, Path: "/ready"})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "ready", resp.Body["status"])
		checks := resp.Body["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["database"])
		assert.Equal(t, "ok", checks["redis"])
	})

	t.Run("503 when the database is down", func(t *testing.T) {
		authService := testutil.NewMockAuthService(t)
		authService.ExpectPing(nil)
		server := NewServer(pingDB{err: errors.New("connection refused")}, authService, nil, nil, nil, nil)

		resp := testutil.Serve(t, server.ReadinessCheck, t.Context(), testutil.Request{Method: http.MethodGet, Path: "/ready"})

		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.Equal(t, "not_ready", resp.Body["status"])
		checks := resp.Body["checks"].(map[string]interface{})
		assert.Contains(t, checks["database"], "connection refused")
	})

	t.Run("503 when redis is down", func(t *testing.T) {
		authService := testutil.NewMockAuthService(t)
		authService.ExpectPing(errors.New("redis unavailable"))
		server := NewServer(pingDB{}, authService, nil, nil, nil, nil)

		resp := testutil.Serve(t, server.ReadinessCheck, t.Context(), testutil.Request{Method: http.MethodGet, Path: "/ready"})

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})
}
