package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/middleware"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

type UserView struct {
	ID            uuid.UUID           `json:"id"`
	Email         openapi_types.Email `json:"email"`
	Name          string              `json:"name"`
	Role          string              `json:"role"`
	TenantID      *uuid.UUID          `json:"tenant_id"`
	EmailVerified bool                `json:"email_verified"`
	CreatedAt     time.Time           `json:"created_at"`
}

func userView(u db.User) UserView {
	return UserView{
		ID:            u.ID,
		Email:         openapi_types.Email(u.Email),
		Name:          u.Name,
		Role:          u.Role,
		TenantID:      u.TenantID,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

type SignupResponse struct {
	User   UserView   `json:"user"`
	Tenant TenantView `json:"tenant"`
}

func (s Server) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.auth.SignUp(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			ConflictErr("User already exists").Write(w)
			return
		}
		if errors.Is(err, auth.ErrSlugUnavailable) {
			ConflictErr("Could not allocate a business address, please retry").Write(w)
			return
		}
		if errors.Is(err, auth.ErrPasswordTooLong) {
			ValidationErr("Validation failed", []ErrorDetail{{Field: "password", Message: err.Error()}}).Write(w)
			return
		}
		internalError(w, r, "Signup failed", err)
		return
	}

	middleware.GetLoggerFromContext(r.Context()).Info("Business signed up",
		"tenant_id", result.Tenant.ID,
		"user_id", result.User.ID)

	writeJSON(w, http.StatusCreated, SignupResponse{
		User:   userView(result.User),
		Tenant: tenantView(result.Tenant),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	auth.TokenPair
	User UserView `json:"user"`
}

func (s Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			middleware.GetLoggerFromContext(r.Context()).Warn("Failed login attempt")
			NewError(http.StatusUnauthorized, CodeInvalidCreds, "Invalid email or password.").Write(w)
		case errors.Is(err, auth.ErrAccountLocked):
			NewError(http.StatusTooManyRequests, CodeAccountLocked, "Too many failed login attempts. Please try again later.").Write(w)
		default:
			internalError(w, r, "Login failed", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		TokenPair: session.Tokens,
		User:      userView(session.User),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (s Server) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tokens, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshInvalid) {
			Unauthorized("Invalid or expired refresh token").Write(w)
			return
		}
		internalError(w, r, "Token refresh failed", err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (s Server) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		internalError(w, r, "Logout failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s Server) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	userID, err := s.auth.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrVerificationInvalid) {
			ValidationErr("Invalid or expired verification token", nil).Write(w)
			return
		}
		internalError(w, r, "Email verification failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"verified": true, "user_id": userID})
}

type MeResponse struct {
	User        UserView          `json:"user"`
	Permissions []rbac.Permission `json:"permissions"`
	Tenant      *TenantView       `json:"tenant,omitempty"`
}

func (s Server) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	user, ok := auth.GetUser(r.Context())
	if !ok {
		u, err := s.db.Queries().GetUserByID(r.Context(), p.UserID)
		if err != nil {
			if isNotFound(err) {
				Unauthorized("Authentication required").Write(w)
				return
			}
			internalError(w, r, "Failed to load user", err)
			return
		}
		user = &u
	}

	resp := MeResponse{
		User:        userView(*user),
		Permissions: rbac.RolePermissions(p.Role),
	}
	if tenantID, ok := p.TenantUUID(); ok {
		tenant, err := s.db.Queries().GetTenantByID(r.Context(), tenantID)
		if err != nil && !isNotFound(err) {
			internalError(w, r, "Failed to load tenant", err)
			return
		}
		if err == nil {
			tv := tenantView(tenant)
			resp.Tenant = &tv
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
