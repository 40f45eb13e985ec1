package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	ts := newTestServer(t)

	jwtSvc, err := auth.NewJWTService([]byte("router-test-signing-key"), "pawdesk-test", 15*time.Minute)
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(jwtSvc, ts.DB.Queries())

	handler, err := NewRouter(ts.Server, RouterConfig{
		Authenticate: authenticator.Authenticate,
		CORS:         &config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit:    &config.RateLimitConfig{Requests: 1000, Window: time.Minute},
		Development:  true,
	})
	require.NoError(t, err)

	tenant := ts.DB.NewTenant(t).Create()
	admin := ts.DB.NewUser(t).In(tenant).AsTenantAdmin().Create()
	groomer := ts.DB.NewUser(t).In(tenant).AsStaff().Create()

	tokenFor := func(u *testutil.TestUser) string {
		row, err := ts.DB.Queries().GetUserByID(t.Context(), u.ID)
		require.NoError(t, err)
		claims, err := auth.ClaimsForUser(row)
		require.NoError(t, err)
		token, err := jwtSvc.GenerateToken(t.Context(), claims)
		require.NoError(t, err)
		return token
	}

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	errorCode := func(rec *httptest.ResponseRecorder) string {
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return body.Error.Code
	}

	t.Run("health is public and carries security headers", func(t *testing.T) {
		rec := do(http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("business routes require a token", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/customers", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, CodeAuthRequired, errorCode(rec))

		rec = do(http.MethodGet, "/api/v1/customers", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("authenticated requests reach the handlers", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/v1/customers", tokenFor(admin), map[string]interface{}{
			"first_name": "Joana", "last_name": "Lopes",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = do(http.MethodGet, "/api/v1/customers", tokenFor(groomer), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = do(http.MethodPost, "/api/v1/customers", tokenFor(groomer), map[string]interface{}{
			"first_name": "No", "last_name": "Way",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, CodePermissionDenied, errorCode(rec))
	})

	t.Run("schema violations are rejected before the handler", func(t *testing.T) {
		rec := do(http.MethodPost, "/api/v1/customers", tokenFor(admin), map[string]interface{}{
			"first_name": 42, "last_name": "Lopes",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, CodeValidationError, errorCode(rec))
	})

	t.Run("role change invalidates outstanding tokens", func(t *testing.T) {
		token := tokenFor(groomer)
		_, err := ts.DB.Pool().Exec(t.Context(), "UPDATE users SET role = $1 WHERE id = $2", string(rbac.RoleTenantAdmin), groomer.ID)
		require.NoError(t, err)

		rec := do(http.MethodGet, "/api/v1/customers", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown routes are 404", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/nothing-here", tokenFor(admin), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
