package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/logging"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountLocked       = errors.New("too many failed login attempts")
	ErrEmailTaken          = errors.New("user already exists")
	ErrRefreshInvalid      = errors.New("invalid or expired refresh token")
	ErrVerificationInvalid = errors.New("invalid or expired verification token")
	ErrUserNotFound        = errors.New("user not found")
	ErrSlugUnavailable     = errors.New("could not allocate a tenant slug")
	ErrPasswordTooLong     = fmt.Errorf("password exceeds %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

// Store is the persistence the auth service needs; *database.Database
// satisfies it.
type Store interface {
	Queries() *db.Queries
	WithTx(ctx context.Context, fn func(q *db.Queries) error) error
}

// VerificationSender delivers the account verification link.
type VerificationSender interface {
	SendVerification(ctx context.Context, to, name, token string) error
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Session struct {
	Tokens TokenPair
	User   db.User
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type SignupResult struct {
	User   db.User
	Tenant db.Tenant
}

// AuthService handles password signup/login, email verification and
// rotating refresh tokens.
type AuthService struct {
	store              *redisStore
	jwt                *JWTService
	db                 Store
	sender             VerificationSender
	refreshExpiry      time.Duration
	loginMaxAttempts   int
	loginLockout       time.Duration
	verificationExpiry time.Duration
	bcryptCost         int
	defaultTimezone    string
	defaultLocale      string
}

func NewAuthService(redisClient *redis.Client, jwtSvc *JWTService, store Store, sender VerificationSender, cfg config.AuthConfig, app config.AppConfig) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:              newRedisStore(redisClient),
		jwt:                jwtSvc,
		db:                 store,
		sender:             sender,
		refreshExpiry:      cfg.RefreshExpiry,
		loginMaxAttempts:   cfg.LoginMaxAttempts,
		loginLockout:       cfg.LoginLockout,
		verificationExpiry: cfg.VerificationExpiry,
		bcryptCost:         cost,
		defaultTimezone:    app.DefaultTimezone,
		defaultLocale:      app.DefaultLocale,
	}
}

// SignUp creates a business account: a trial tenant on the free plan and
// its first TENANT_ADMIN user. A verification email is sent after commit.
func (s *AuthService) SignUp(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	rawToken, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}

	var result SignupResult
	for attempt := 1; ; attempt++ {
		err = s.signUpTx(ctx, email, name, hash, rawToken, &result)
		if !errors.Is(err, errSlugRace) {
			break
		}
		if attempt == signupSlugAttempts {
			err = ErrSlugUnavailable
			break
		}
		logging.Warn("tenant slug taken concurrently, retrying", "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	if s.sender != nil {
		sendErr := s.sender.SendVerification(ctx, email, name, rawToken)
		if sendErr != nil {
			logging.Error("failed to enqueue verification email", "user_id", result.User.ID, "error", sendErr)
		}
		s.logVerification(ctx, result, sendErr)
	}

	logging.Info("tenant signed up", "tenant_id", result.Tenant.ID, "slug", result.Tenant.Slug, "user_id", result.User.ID)
	return &result, nil
}

const (
	notificationQueued = "QUEUED"
	notificationFailed = "FAILED"
)

// logVerification records the verification email in the tenant's
// notification log.
func (s *AuthService) logVerification(ctx context.Context, result SignupResult, sendErr error) {
	params := db.CreateNotificationLogParams{
		TenantID:  result.Tenant.ID,
		UserID:    &result.User.ID,
		Channel:   tenancy.ChannelEmail,
		Template:  "verification",
		Recipient: result.User.Email,
		Status:    notificationQueued,
	}
	if sendErr != nil {
		params.Status = notificationFailed
		params.Error = pgtype.Text{String: sendErr.Error(), Valid: true}
	}
	if _, err := s.db.Queries().CreateNotificationLog(ctx, params); err != nil {
		logging.Warn("failed to record notification log", "tenant_id", result.Tenant.ID, "error", err)
	}
}

// signupSlugAttempts bounds retries when a concurrent signup commits the
// slug this one picked.
const signupSlugAttempts = 5

var errSlugRace = errors.New("tenant slug taken concurrently")

func (s *AuthService) signUpTx(ctx context.Context, email, name, hash, rawToken string, result *SignupResult) error {
	return s.db.WithTx(ctx, func(q *db.Queries) error {
		exists, err := q.UserEmailExists(ctx, email)
		if err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}

		slug, err := tenancy.UniqueSlug(tenancy.SlugFromEmail(email), func(candidate string) (bool, error) {
			return q.TenantSlugExists(ctx, candidate)
		})
		if err != nil {
			return fmt.Errorf("allocating slug: %w", err)
		}

		businessName := tenancy.BusinessName(name)
		settings, err := tenancy.DefaultSettings(businessName, email, s.defaultTimezone, s.defaultLocale).Marshal()
		if err != nil {
			return err
		}

		tenant, err := q.CreateTenant(ctx, db.CreateTenantParams{
			Name:     businessName,
			Slug:     slug,
			Plan:     tenancy.PlanFree,
			Status:   tenancy.StatusTrial,
			Settings: settings,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return errSlugRace
			}
			return fmt.Errorf("creating tenant: %w", err)
		}

		user, err := q.CreateUser(ctx, db.CreateUserParams{
			TenantID: &tenant.ID,
			Email:    email,
			Name:     name,
			Role:     string(rbac.RoleTenantAdmin),
		})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("creating user: %w", err)
		}

		if err := q.CreatePassword(ctx, db.CreatePasswordParams{UserID: user.ID, Hash: hash}); err != nil {
			return fmt.Errorf("storing password: %w", err)
		}

		if err := q.CreateVerificationToken(ctx, db.CreateVerificationTokenParams{
			TokenHash: hashString(rawToken),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(s.verificationExpiry),
		}); err != nil {
			return fmt.Errorf("storing verification token: %w", err)
		}

		*result = SignupResult{User: user, Tenant: tenant}
		return nil
	})
}

// Login checks the password and returns a token pair. Failures are counted
// per email; reaching the limit locks the email out for the lockout period.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	locked, err := s.store.isLoginLocked(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking login lock: %w", err)
	}
	if locked {
		return nil, ErrAccountLocked
	}

	user, err := s.db.Queries().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.loginFailed(ctx, email)
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := s.db.Queries().GetPasswordHash(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.loginFailed(ctx, email)
		}
		return nil, fmt.Errorf("looking up password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, s.loginFailed(ctx, email)
	}

	if err := s.store.resetLoginFailures(ctx, email); err != nil {
		logging.Warn("failed to reset login failures", "user_id", user.ID, "error", err)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logging.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &Session{Tokens: *tokens, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string) error {
	if s.loginMaxAttempts <= 0 {
		return ErrInvalidCredentials
	}
	n, err := s.store.incrLoginFailures(ctx, email, s.loginLockout)
	if err != nil {
		return fmt.Errorf("recording login failure: %w", err)
	}
	if n >= int64(s.loginMaxAttempts) {
		if err := s.store.lockLogin(ctx, email, s.loginLockout); err != nil {
			return fmt.Errorf("locking login: %w", err)
		}
		logging.Warn("login locked", "attempts", n)
	}
	return ErrInvalidCredentials
}

// Refresh rotates a refresh token and returns a new pair. The old token is
// consumed even if the user has since been removed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userIDStr, err := s.store.takeRefreshToken(ctx, hashString(refreshToken))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("retrieving refresh token: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in refresh token: %w", err)
	}

	user, err := s.db.Queries().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshInvalid
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	tokens, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logging.Info("refresh token rotated", "user_id", userID)
	return tokens, nil
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.store.deleteRefreshToken(ctx, hashString(refreshToken)); err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (uuid.UUID, error) {
	row, err := s.db.Queries().ConsumeVerificationToken(ctx, hashString(token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrVerificationInvalid
		}
		return uuid.Nil, fmt.Errorf("consuming verification token: %w", err)
	}
	if time.Now().After(row.ExpiresAt) {
		return uuid.Nil, ErrVerificationInvalid
	}

	if err := s.db.Queries().SetUserEmailVerified(ctx, row.UserID); err != nil {
		return uuid.Nil, fmt.Errorf("marking email verified: %w", err)
	}

	logging.Info("email verified", "user_id", row.UserID)
	return row.UserID, nil
}

func (s *AuthService) Ping(ctx context.Context) error {
	return s.store.ping(ctx)
}

// generates a JWT access token and a random refresh token
func (s *AuthService) issueTokenPair(ctx context.Context, user db.User) (*TokenPair, error) {
	claims, err := ClaimsForUser(user)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.GenerateToken(ctx, claims)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	rawRefresh, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	if err := s.store.storeRefreshToken(ctx, hashString(rawRefresh), user.ID.String(), s.refreshExpiry); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.Expiry().Seconds()),
	}, nil
}

// ClaimsForUser derives token claims from the stored user row.
func ClaimsForUser(user db.User) (TokenClaims, error) {
	role, ok := rbac.ParseRole(user.Role)
	if !ok {
		return TokenClaims{}, fmt.Errorf("user %s has unknown role %q", user.ID, user.Role)
	}
	claims := TokenClaims{UserID: user.ID, Role: role}
	if user.TenantID != nil {
		claims.TenantID = user.TenantID.String()
	}
	return claims, nil
}

// HashPassword bcrypts a plaintext password.
func HashPassword(password string, cost int) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// returns 32 random bytes as a hex string (64 chars).
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
