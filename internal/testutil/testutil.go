package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/db"
)

// Request represents a test HTTP request
type Request struct {
	Method      string
	Path        string
	Body        interface{}
	RawBody     io.Reader
	Headers     map[string]string
	QueryParams map[string]string
	URLParams   map[string]string
}

// Response represents a test HTTP response
type Response struct {
	*httptest.ResponseRecorder
	Body map[string]interface{}
}

// ErrorCode returns error.code of an error envelope, or "".
func (r *Response) ErrorCode() string {
	envelope, ok := r.Body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := envelope["code"].(string)
	return code
}

// Data returns the "data" array of a list response.
func (r *Response) Data() []interface{} {
	data, _ := r.Body["data"].([]interface{})
	return data
}

// Decode unmarshals the raw response body into dst.
func (r *Response) Decode(t *testing.T, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.ResponseRecorder.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

// NewRequest builds an *http.Request from req. URL params are attached as a
// chi route context so handlers can be called without a router.
func NewRequest(t *testing.T, ctx context.Context, req Request) *http.Request {
	t.Helper()

	body := req.RawBody
	if body == nil && req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	path := req.Path
	if path == "" {
		path = "/"
	}
	httpReq := httptest.NewRequest(req.Method, path, body)

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.QueryParams != nil {
		q := httpReq.URL.Query()
		for key, value := range req.QueryParams {
			q.Add(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if len(req.URLParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range req.URLParams {
			rctx.URLParams.Add(key, value)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	return httpReq.WithContext(ctx)
}

// Serve runs handler against req and decodes the JSON response.
func Serve(t *testing.T, handler http.HandlerFunc, ctx context.Context, req Request) *Response {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler(recorder, NewRequest(t, ctx, req))

	var responseBody map[string]interface{}
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &responseBody); err != nil {
			t.Logf("Failed to decode response body: %v", err)
		}
	}

	return &Response{
		ResponseRecorder: recorder,
		Body:             responseBody,
	}
}

// As serves req as the given user.
func As(t *testing.T, user *TestUser, handler http.HandlerFunc, req Request) *Response {
	t.Helper()
	return Serve(t, handler, ContextWithUser(context.Background(), user), req)
}

// ContextWithUser adds the principal and user row of a test user to the
// context, as the authenticator would.
func ContextWithUser(ctx context.Context, user *TestUser) context.Context {
	row := &db.User{
		ID:            user.ID,
		TenantID:      user.TenantID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          string(user.Role),
		EmailVerified: true,
	}
	return auth.WithUser(auth.WithPrincipal(ctx, user.Principal()), row)
}

// TimeNow returns a consistent time for testing
func TimeNow() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// NewUUID returns a deterministic UUID for testing
func NewUUID() uuid.UUID {
	return uuid.MustParse("12345678-1234-5678-9012-123456789012")
}

// AssertJSON checks if the response body contains expected JSON fields
func AssertJSON(t *testing.T, resp *Response, field string, expected interface{}) {
	t.Helper()
	if resp.Body[field] != expected {
		t.Errorf("Expected %s to be %v, got %v", field, expected, resp.Body[field])
	}
}

// AssertJSONExists checks if a JSON field exists in the response
func AssertJSONExists(t *testing.T, resp *Response, field string) {
	t.Helper()
	if _, exists := resp.Body[field]; !exists {
		t.Errorf("Expected field %s to exist in response", field)
	}
}
