package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, tenant_id, email, name, role, email_verified, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Email,
		&i.Name,
		&i.Role,
		&i.EmailVerified,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (tenant_id, email, name, role, email_verified)
VALUES ($1, lower($2), $3, $4, $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	TenantID      *uuid.UUID `json:"tenant_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.TenantID, arg.Email, arg.Name, arg.Role, arg.EmailVerified)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users
WHERE id = $1 AND deleted_at IS NULL`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users
WHERE email = lower($1) AND deleted_at IS NULL`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	return scanUser(row)
}

const userEmailExists = `-- name: UserEmailExists :one
SELECT EXISTS (SELECT 1 FROM users WHERE email = lower($1))`

func (q *Queries) UserEmailExists(ctx context.Context, email string) (bool, error) {
	row := q.db.QueryRow(ctx, userEmailExists, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const setUserEmailVerified = `-- name: SetUserEmailVerified :exec
UPDATE users SET email_verified = true, updated_at = now()
WHERE id = $1`

func (q *Queries) SetUserEmailVerified(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, setUserEmailVerified, id)
	return err
}

const createPassword = `-- name: CreatePassword :exec
INSERT INTO passwords (user_id, hash)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET hash = EXCLUDED.hash, updated_at = now()`

type CreatePasswordParams struct {
	UserID uuid.UUID `json:"user_id"`
	Hash   string    `json:"hash"`
}

func (q *Queries) CreatePassword(ctx context.Context, arg CreatePasswordParams) error {
	_, err := q.db.Exec(ctx, createPassword, arg.UserID, arg.Hash)
	return err
}

const getPasswordHash = `-- name: GetPasswordHash :one
SELECT hash FROM passwords WHERE user_id = $1`

func (q *Queries) GetPasswordHash(ctx context.Context, userID uuid.UUID) (string, error) {
	row := q.db.QueryRow(ctx, getPasswordHash, userID)
	var hash string
	err := row.Scan(&hash)
	return hash, err
}

const createVerificationToken = `-- name: CreateVerificationToken :exec
INSERT INTO verification_tokens (token_hash, user_id, expires_at)
VALUES ($1, $2, $3)`

type CreateVerificationTokenParams struct {
	TokenHash string    `json:"token_hash"`
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (q *Queries) CreateVerificationToken(ctx context.Context, arg CreateVerificationTokenParams) error {
	_, err := q.db.Exec(ctx, createVerificationToken, arg.TokenHash, arg.UserID, arg.ExpiresAt)
	return err
}

const consumeVerificationToken = `-- name: ConsumeVerificationToken :one
DELETE FROM verification_tokens
WHERE token_hash = $1
RETURNING user_id, expires_at`

type ConsumeVerificationTokenRow struct {
	UserID    uuid.UUID `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (q *Queries) ConsumeVerificationToken(ctx context.Context, tokenHash string) (ConsumeVerificationTokenRow, error) {
	row := q.db.QueryRow(ctx, consumeVerificationToken, tokenHash)
	var i ConsumeVerificationTokenRow
	err := row.Scan(&i.UserID, &i.ExpiresAt)
	return i, err
}
