package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthHandlerServer(t *testing.T) (*Server, *testutil.MockAuthService) {
	authService := testutil.NewMockAuthService(t)
	return NewServer(pingDB{}, authService, nil, nil, nil, nil), authService
}

func TestServer_Login(t *testing.T) {
	t.Run("success returns tokens and user", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		tenantID := uuid.New()
		authService.ExpectLogin("owner@example.com", "correct-horse", &auth.Session{
			Tokens: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900},
			User:   db.User{ID: uuid.New(), TenantID: &tenantID, Email: "owner@example.com", Role: "TENANT_ADMIN"},
		}, nil)

		resp := testutil.Serve(t, server.Login, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"email": "owner@example.com", "password": "correct-horse"},
		})

		require.Equal(t, http.StatusOK, resp.Code)
		testutil.AssertJSON(t, resp, "access_token", "access")
		testutil.AssertJSON(t, resp, "token_type", "Bearer")
		user := resp.Body["user"].(map[string]interface{})
		assert.Equal(t, "TENANT_ADMIN", user["role"])
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.ExpectLogin("owner@example.com", "wrong", nil, auth.ErrInvalidCredentials)

		resp := testutil.Serve(t, server.Login, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"email": "owner@example.com", "password": "wrong"},
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, CodeInvalidCreds, resp.ErrorCode())
	})

	t.Run("locked account", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.ExpectLogin("owner@example.com", "whatever", nil, auth.ErrAccountLocked)

		resp := testutil.Serve(t, server.Login, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"email": "owner@example.com", "password": "whatever"},
		})

		assert.Equal(t, http.StatusTooManyRequests, resp.Code)
		assert.Equal(t, CodeAccountLocked, resp.ErrorCode())
	})

	t.Run("malformed email is rejected before the service", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)

		resp := testutil.Serve(t, server.Login, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"email": "not-an-email", "password": "x"},
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
		authService.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestServer_SignUp(t *testing.T) {
	t.Run("duplicate email is a conflict", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.On("SignUp", mock.Anything, auth.SignupInput{Name: "Ana", Email: "ana@example.com", Password: "long-enough"}).
			Return(nil, auth.ErrEmailTaken)

		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": "long-enough"},
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, CodeConflict, resp.ErrorCode())
	})

	t.Run("exhausted slug retries are a conflict", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.On("SignUp", mock.Anything, mock.Anything).Return(nil, auth.ErrSlugUnavailable)

		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": "long-enough"},
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, CodeConflict, resp.ErrorCode())
	})

	t.Run("short password fails validation", func(t *testing.T) {
		server, _ := newAuthHandlerServer(t)

		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": "short"},
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		details := resp.Body["error"].(map[string]interface{})["details"].([]interface{})
		assert.Equal(t, "password", details[0].(map[string]interface{})["field"])
	})

	t.Run("multibyte password over 72 bytes fails validation", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)

		// 40 characters, 80 bytes
		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": strings.Repeat("é", 40)},
		})

		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
		details := resp.Body["error"].(map[string]interface{})["details"].([]interface{})
		assert.Equal(t, "password", details[0].(map[string]interface{})["field"])
		assert.Equal(t, "must be at most 72 bytes", details[0].(map[string]interface{})["message"])
		authService.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	})

	t.Run("72 byte password is accepted", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		password := strings.Repeat("é", 36)
		authService.On("SignUp", mock.Anything, auth.SignupInput{Name: "Ana", Email: "ana@example.com", Password: password}).
			Return(&auth.SignupResult{}, nil)

		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": password},
		})

		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("service rejection of a long password is a validation error", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.On("SignUp", mock.Anything, mock.Anything).Return(nil, auth.ErrPasswordTooLong)

		resp := testutil.Serve(t, server.SignUp, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"name": "Ana", "email": "ana@example.com", "password": "long-enough"},
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, CodeValidationError, resp.ErrorCode())
	})
}

func TestServer_RefreshAndLogout(t *testing.T) {
	t.Run("expired refresh token", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.On("Refresh", mock.Anything, "stale").Return(nil, auth.ErrRefreshInvalid)

		resp := testutil.Serve(t, server.RefreshToken, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"refresh_token": "stale"},
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, CodeAuthRequired, resp.ErrorCode())
	})

	t.Run("logout revokes and returns 204", func(t *testing.T) {
		server, authService := newAuthHandlerServer(t)
		authService.On("Logout", mock.Anything, "refresh").Return(nil)

		resp := testutil.Serve(t, server.Logout, t.Context(), testutil.Request{
			Method: http.MethodPost,
			Body:   map[string]string{"refresh_token": "refresh"},
		})

		assert.Equal(t, http.StatusNoContent, resp.Code)
		authService.AssertExpectations(t)
	})
}

func TestServer_VerifyEmail(t *testing.T) {
	server, authService := newAuthHandlerServer(t)
	authService.On("VerifyEmail", mock.Anything, "bad").Return(uuid.Nil, auth.ErrVerificationInvalid)

	resp := testutil.Serve(t, server.VerifyEmail, t.Context(), testutil.Request{
		Method: http.MethodPost,
		Body:   map[string]string{"token": "bad"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestServer_GetMe(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		server, _ := newAuthHandlerServer(t)
		resp := testutil.Serve(t, server.GetMe, t.Context(), testutil.Request{Method: http.MethodGet})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("super admin sees every permission and no tenant", func(t *testing.T) {
		server, _ := newAuthHandlerServer(t)
		user := &testutil.TestUser{ID: uuid.New(), Email: "root@example.com", Role: "SUPER_ADMIN"}

		resp := testutil.As(t, user, server.GetMe, testutil.Request{Method: http.MethodGet})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.NotContains(t, resp.Body, "tenant")
		perms := resp.Body["permissions"].([]interface{})
		assert.Contains(t, perms, "settings:update")
		assert.Contains(t, perms, "appointment:delete")
	})
}

func TestServer_GetMe_WithTenant(t *testing.T) {
	ts := newTestServer(t)
	tenant := ts.DB.NewTenant(t).WithName("Happy Paws").Create()
	staff := ts.DB.NewUser(t).In(tenant).AsStaff().Create()

	resp := testutil.As(t, staff, ts.GetMe, testutil.Request{Method: http.MethodGet})

	require.Equal(t, http.StatusOK, resp.Code)
	tv := resp.Body["tenant"].(map[string]interface{})
	assert.Equal(t, "Happy Paws", tv["name"])
	perms := resp.Body["permissions"].([]interface{})
	assert.Contains(t, perms, "appointment:view")
	assert.NotContains(t, perms, "settings:update")
}
