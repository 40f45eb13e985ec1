package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/database"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
)

func main() {
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password (min 8 chars)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(rbac.RoleSuperAdmin), "SUPER_ADMIN, TENANT_ADMIN, STAFF or CUSTOMER")
	tenant := flag.String("tenant", "", "tenant id, required for every role but SUPER_ADMIN")
	flag.Parse()

	if err := run(*email, *password, *name, *role, *tenant); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Example: %s -email ops@pawdesk.io -password s3cretpass -name Ops\n", os.Args[0])
		os.Exit(1)
	}
}

func run(email, password, name, roleName, tenant string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return fmt.Errorf("email and a password of at least 8 characters are required")
	}
	role, ok := rbac.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("unknown role %q", roleName)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	var tenantID *uuid.UUID
	if tenant != "" {
		id, err := uuid.Parse(tenant)
		if err != nil {
			return fmt.Errorf("invalid tenant id: %w", err)
		}
		tenantID = &id
	}
	if tenantID == nil && !rbac.IsSuperAdmin(role) {
		return fmt.Errorf("role %s requires -tenant", role)
	}

	cfg := config.Load()
	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	database, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	var user db.User
	err = database.WithTx(ctx, func(q *db.Queries) error {
		if tenantID != nil {
			if _, err := q.GetTenantByID(ctx, *tenantID); err != nil {
				return fmt.Errorf("tenant %s: %w", tenantID, err)
			}
		}
		user, err = q.CreateUser(ctx, db.CreateUserParams{
			TenantID:      tenantID,
			Email:         email,
			Name:          name,
			Role:          string(role),
			EmailVerified: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return q.CreatePassword(ctx, db.CreatePasswordParams{UserID: user.ID, Hash: hash})
	})
	if err != nil {
		return err
	}

	fmt.Printf("User created successfully: %s (%s) id=%s\n", user.Email, user.Role, user.ID)
	return nil
}
