package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	PrincipalKey contextKey = "principal"
	UserKey      contextKey = "user"
)

var ErrClaimsMismatch = errors.New("token claims do not match user")

// UserLookup loads the stored user behind a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (db.User, error)
}

type Authenticator struct {
	jwtService *JWTService
	users      UserLookup
}

func NewAuthenticator(jwtService *JWTService, users UserLookup) *Authenticator {
	return &Authenticator{
		jwtService: jwtService,
		users:      users,
	}
}

// Authenticate is the openapi3filter hook for the BearerAuth scheme. On
// success the request context carries the principal and the user row.
func (a *Authenticator) Authenticate(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input.SecuritySchemeName != "BearerAuth" {
		return fmt.Errorf("authentication service missing")
	}

	req := input.RequestValidationInput.Request
	principal, user, err := a.ResolveRequest(ctx, req)
	if err != nil {
		return err
	}

	*req = *req.WithContext(WithUser(WithPrincipal(req.Context(), principal), user))
	return nil
}

// ResolveRequest validates the bearer token of r and builds its principal.
func (a *Authenticator) ResolveRequest(ctx context.Context, r *http.Request) (rbac.Principal, *db.User, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return rbac.Principal{}, nil, fmt.Errorf("authorization header missing")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return rbac.Principal{}, nil, fmt.Errorf("invalid authorization header format")
	}

	claims, err := a.jwtService.ValidateToken(ctx, strings.TrimPrefix(authHeader, bearerPrefix))
	if err != nil {
		return rbac.Principal{}, nil, fmt.Errorf("invalid token: %w", err)
	}

	return a.principalFor(ctx, claims)
}

func (a *Authenticator) principalFor(ctx context.Context, claims *TokenClaims) (rbac.Principal, *db.User, error) {
	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rbac.Principal{}, nil, ErrUserNotFound
		}
		return rbac.Principal{}, nil, fmt.Errorf("loading user: %w", err)
	}

	stored, err := ClaimsForUser(user)
	if err != nil {
		return rbac.Principal{}, nil, err
	}

	// a role change or tenant move invalidates outstanding tokens
	if stored.Role != claims.Role || stored.TenantID != claims.TenantID {
		return rbac.Principal{}, nil, ErrClaimsMismatch
	}
	if !rbac.IsSuperAdmin(stored.Role) && stored.TenantID == "" {
		return rbac.Principal{}, nil, fmt.Errorf("user %s has no tenant", user.ID)
	}

	return rbac.Principal{
		UserID:   user.ID,
		Role:     stored.Role,
		TenantID: stored.TenantID,
	}, &user, nil
}

func WithPrincipal(ctx context.Context, p rbac.Principal) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.UserID)
	return context.WithValue(ctx, PrincipalKey, p)
}

func WithUser(ctx context.Context, user *db.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetPrincipal(ctx context.Context) (rbac.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(rbac.Principal)
	return p, ok
}

func GetUser(ctx context.Context) (*db.User, bool) {
	u, ok := ctx.Value(UserKey).(*db.User)
	return u, ok && u != nil
}
