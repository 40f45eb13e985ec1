package api

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/db"
)

// DatabaseService defines the interface for database operations
type DatabaseService interface {
	Queries() *db.Queries
	Ping(ctx context.Context) error
	WithTx(ctx context.Context, fn func(q *db.Queries) error) error
}

// AuthService defines the account operations behind /auth
type AuthService interface {
	SignUp(ctx context.Context, in auth.SignupInput) (*auth.SignupResult, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) (uuid.UUID, error)
	Ping(ctx context.Context) error
}

// ObjectStorage stores uploaded files; *aws.S3Service implements it
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, key string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// AuditRecorder writes audit rows for mutations
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}
