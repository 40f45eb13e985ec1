package auth_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/email"
	"github.com/pawdesk/pawdesk/internal/queue"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	sharedQueue *testutil.TestQueue
	sharedDB    *testutil.TestDatabase
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	t := &testing.T{}
	sharedQueue = testutil.NewTestQueue(t)
	sharedDB = testutil.NewTestDatabase(t)
	sharedDB.RunMigrations(t)

	code := m.Run()

	sharedDB.Cleanup()
	sharedQueue.Close()

	os.Exit(code)
}

// captureSender keeps the last verification token handed to it.
type captureSender struct {
	to    string
	token string
	err   error
}

func (c *captureSender) SendVerification(_ context.Context, to, _, token string) error {
	c.to, c.token = to, token
	return c.err
}

func newTestAuthService(t *testing.T, sender auth.VerificationSender) *auth.AuthService {
	t.Helper()
	jwtSvc, err := auth.NewJWTService([]byte("test-signing-key-with-enough-bytes"), "test-issuer", 15*time.Minute)
	require.NoError(t, err)

	return auth.NewAuthService(sharedQueue.Redis, jwtSvc, sharedDB, sender, config.AuthConfig{
		RefreshExpiry:      7 * 24 * time.Hour,
		LoginMaxAttempts:   3,
		LoginLockout:       15 * time.Minute,
		VerificationExpiry: 24 * time.Hour,
		BcryptCost:         bcrypt.MinCost,
	}, config.AppConfig{DefaultTimezone: "UTC", DefaultLocale: "en"})
}

func reset(t *testing.T) {
	sharedQueue.Cleanup(t)
	sharedDB.CleanupDatabase(t)
}

// userWithPassword creates a staff user in a fresh tenant with a stored password.
func userWithPassword(t *testing.T, email, password string) *testutil.TestUser {
	t.Helper()
	tenant := sharedDB.NewTenant(t).Create()
	user := sharedDB.NewUser(t).WithEmail(email).In(tenant).AsStaff().Create()

	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, sharedDB.Queries().CreatePassword(context.Background(), db.CreatePasswordParams{UserID: user.ID, Hash: hash}))
	return user
}

func TestAuthService_SignUp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	t.Run("creates a trial tenant and its admin", func(t *testing.T) {
		reset(t)
		sender := &captureSender{}
		svc := newTestAuthService(t, sender)

		result, err := svc.SignUp(ctx, auth.SignupInput{Name: "Maria Silva", Email: " Maria@HappyPaws.com ", Password: "correct horse"})
		require.NoError(t, err)

		assert.Equal(t, "maria@happypaws.com", result.User.Email)
		assert.Equal(t, string(rbac.RoleTenantAdmin), result.User.Role)
		assert.False(t, result.User.EmailVerified)
		require.NotNil(t, result.User.TenantID)
		assert.Equal(t, result.Tenant.ID, *result.User.TenantID)

		assert.Equal(t, "Maria's Business", result.Tenant.Name)
		assert.Equal(t, tenancy.PlanFree, result.Tenant.Plan)
		assert.Equal(t, tenancy.StatusTrial, result.Tenant.Status)
		assert.NotEmpty(t, result.Tenant.Slug)

		settings, err := tenancy.ParseSettings(result.Tenant.Settings)
		require.NoError(t, err)
		assert.Equal(t, "maria@happypaws.com", settings.BusinessEmail)
		assert.Equal(t, "UTC", settings.Timezone)

		assert.Equal(t, "maria@happypaws.com", sender.to)
		assert.Len(t, sender.token, 64)
	})

	t.Run("duplicate email returns ErrEmailTaken", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		_, err := svc.SignUp(ctx, auth.SignupInput{Name: "A", Email: "dup@example.com", Password: "password1"})
		require.NoError(t, err)

		_, err = svc.SignUp(ctx, auth.SignupInput{Name: "B", Email: "DUP@example.com", Password: "password2"})
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("slugs stay unique across signups from one domain", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		a, err := svc.SignUp(ctx, auth.SignupInput{Name: "A", Email: "paws@example.com", Password: "password1"})
		require.NoError(t, err)
		b, err := svc.SignUp(ctx, auth.SignupInput{Name: "B", Email: "paws@example.org", Password: "password1"})
		require.NoError(t, err)

		assert.NotEqual(t, a.Tenant.Slug, b.Tenant.Slug)
	})

	t.Run("verification email is queued", func(t *testing.T) {
		reset(t)
		mailer, err := email.NewMailer(sharedQueue.Queue,
			config.AppConfig{Name: "PawDesk", URL: "https://app.pawdesk.test"},
			config.AuthConfig{VerificationExpiry: 24 * time.Hour})
		require.NoError(t, err)
		svc := newTestAuthService(t, mailer)

		result, err := svc.SignUp(ctx, auth.SignupInput{Name: "Q", Email: "queued@example.com", Password: "password1"})
		require.NoError(t, err)

		var status, template, recipient string
		require.NoError(t, sharedDB.Pool().QueryRow(ctx,
			"SELECT status, template, recipient FROM notification_logs WHERE tenant_id = $1", result.Tenant.ID).
			Scan(&status, &template, &recipient))
		assert.Equal(t, "QUEUED", status)
		assert.Equal(t, "verification", template)
		assert.Equal(t, "queued@example.com", recipient)

		tasks := sharedQueue.PendingTasks(t, queue.QueueCritical)
		require.Len(t, tasks, 1)
		assert.Equal(t, queue.TypeEmailDelivery, tasks[0].Type)
		assert.Contains(t, string(tasks[0].Payload), "queued@example.com")
		assert.Contains(t, string(tasks[0].Payload), "https://app.pawdesk.test/verify-email?token=")
	})

	t.Run("concurrent signups sharing a slug base all succeed", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		const n = 5
		var wg sync.WaitGroup
		results := make([]*auth.SignupResult, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = svc.SignUp(ctx, auth.SignupInput{
					Name:     "Race",
					Email:    fmt.Sprintf("race@shop%d.example.com", i),
					Password: "password1",
				})
			}(i)
		}
		wg.Wait()

		slugs := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			slugs[results[i].Tenant.Slug] = true
		}
		assert.Len(t, slugs, n)
		assert.True(t, slugs["race"])
	})

	t.Run("sender failure does not fail signup", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, &captureSender{err: errors.New("queue down")})

		result, err := svc.SignUp(ctx, auth.SignupInput{Name: "C", Email: "c@example.com", Password: "password1"})
		require.NoError(t, err)

		var status, reason string
		require.NoError(t, sharedDB.Pool().QueryRow(ctx,
			"SELECT status, error FROM notification_logs WHERE tenant_id = $1", result.Tenant.ID).
			Scan(&status, &reason))
		assert.Equal(t, "FAILED", status)
		assert.Equal(t, "queue down", reason)
	})
}

func TestAuthService_VerifyEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	t.Run("token verifies once", func(t *testing.T) {
		reset(t)
		sender := &captureSender{}
		svc := newTestAuthService(t, sender)

		result, err := svc.SignUp(ctx, auth.SignupInput{Name: "V", Email: "verify@example.com", Password: "password1"})
		require.NoError(t, err)

		userID, err := svc.VerifyEmail(ctx, sender.token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, userID)

		user, err := sharedDB.Queries().GetUserByID(ctx, userID)
		require.NoError(t, err)
		assert.True(t, user.EmailVerified)

		_, err = svc.VerifyEmail(ctx, sender.token)
		assert.ErrorIs(t, err, auth.ErrVerificationInvalid)
	})

	t.Run("unknown token", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		_, err := svc.VerifyEmail(ctx, "not-a-token")
		assert.ErrorIs(t, err, auth.ErrVerificationInvalid)
	})
}

func TestAuthService_Login(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	t.Run("valid password returns token pair", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		user := userWithPassword(t, "login@example.com", "s3cret-pass")

		session, err := svc.Login(ctx, "Login@Example.com", "s3cret-pass")
		require.NoError(t, err)

		assert.Equal(t, user.ID, session.User.ID)
		assert.NotEmpty(t, session.Tokens.AccessToken)
		assert.Len(t, session.Tokens.RefreshToken, 64) // 32 bytes as hex
		assert.Equal(t, "Bearer", session.Tokens.TokenType)
		assert.EqualValues(t, 900, session.Tokens.ExpiresIn)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "wrong@example.com", "s3cret-pass")

		_, err := svc.Login(ctx, "wrong@example.com", "nope")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		_, err = svc.Login(ctx, "ghost@example.com", "nope")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("repeated failures lock the email", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "locked@example.com", "s3cret-pass")

		// LoginMaxAttempts=3: the third failure sets the lock
		for i := 0; i < 3; i++ {
			_, err := svc.Login(ctx, "locked@example.com", "nope")
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		}

		_, err := svc.Login(ctx, "locked@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, auth.ErrAccountLocked)
	})

	t.Run("success clears the failure count", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "clear@example.com", "s3cret-pass")

		for i := 0; i < 2; i++ {
			_, _ = svc.Login(ctx, "clear@example.com", "nope")
		}
		_, err := svc.Login(ctx, "clear@example.com", "s3cret-pass")
		require.NoError(t, err)

		for i := 0; i < 2; i++ {
			_, _ = svc.Login(ctx, "clear@example.com", "nope")
		}
		_, err = svc.Login(ctx, "clear@example.com", "s3cret-pass")
		assert.NoError(t, err)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	t.Run("valid refresh token returns new pair", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "refresh@example.com", "s3cret-pass")

		session, err := svc.Login(ctx, "refresh@example.com", "s3cret-pass")
		require.NoError(t, err)

		pair, err := svc.Refresh(ctx, session.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEqual(t, session.Tokens.RefreshToken, pair.RefreshToken)
	})

	t.Run("old token rejected after rotation", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "rotate@example.com", "s3cret-pass")

		session, err := svc.Login(ctx, "rotate@example.com", "s3cret-pass")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, session.Tokens.RefreshToken)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, session.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrRefreshInvalid)
	})

	t.Run("invalid token returns ErrRefreshInvalid", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		_, err := svc.Refresh(ctx, "not-a-real-token")
		assert.ErrorIs(t, err, auth.ErrRefreshInvalid)
	})
}

func TestAuthService_Logout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	ctx := context.Background()

	t.Run("logout revokes refresh token", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)
		userWithPassword(t, "logout@example.com", "s3cret-pass")

		session, err := svc.Login(ctx, "logout@example.com", "s3cret-pass")
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, session.Tokens.RefreshToken))

		_, err = svc.Refresh(ctx, session.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrRefreshInvalid)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		reset(t)
		svc := newTestAuthService(t, nil)

		require.NoError(t, svc.Logout(ctx, "whatever"))
		require.NoError(t, svc.Logout(ctx, "whatever"))
	})
}

func TestAuthService_Ping(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	svc := newTestAuthService(t, nil)
	assert.NoError(t, svc.Ping(context.Background()))
}

func TestHashPassword_ByteLimit(t *testing.T) {
	hash, err := auth.HashPassword(strings.Repeat("é", 36), bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.Repeat("é", 36))))

	_, err = auth.HashPassword(strings.Repeat("é", 40), bcrypt.MinCost)
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)
}
