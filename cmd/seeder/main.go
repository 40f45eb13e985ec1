package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/database"
	"github.com/pawdesk/pawdesk/internal/db"
	"github.com/pawdesk/pawdesk/internal/rbac"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"gopkg.in/yaml.v3"
)

type SeedData struct {
	Tenants  []Tenant  `yaml:"tenants"`
	Users    []User    `yaml:"users"`
	Services []Service `yaml:"services"`
}

type Tenant struct {
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Plan     string `yaml:"plan"`
	Status   string `yaml:"status"`
	Email    string `yaml:"email"`
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
}

type User struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Tenant   string `yaml:"tenant,omitempty"` // slug; empty for SUPER_ADMIN
}

type Service struct {
	Tenant          string `yaml:"tenant"`
	Name            string `yaml:"name"`
	Type            string `yaml:"type"`
	DurationMinutes int32  `yaml:"duration_minutes"`
	PriceCents      int64  `yaml:"price_cents"`
	Description     string `yaml:"description"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("command required")
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "seed":
		return seedCommand(args)
	case "nuke":
		return nukeCommand(args)
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func seedCommand(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	file := fs.String("file", "", "YAML file to seed from")
	dir := fs.String("dir", "", "Directory of YAML files to seed from")
	dryRun := fs.Bool("dry-run", false, "Validate files without making database changes")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		return err
	}

	seedData, err := loadSeedData(files)
	if err != nil {
		return fmt.Errorf("failed to load seed data: %w", err)
	}

	if err := validateSeedData(seedData); err != nil {
		return err
	}
	if *dryRun {
		fmt.Println("dry run: data is valid, nothing written")
		return nil
	}

	cfg := config.Load()
	seedDB, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer seedDB.Close()

	fmt.Printf("seeding database from %d file(s)\n", len(files))
	ctx := context.Background()
	return seedDB.WithTx(ctx, func(q *db.Queries) error {
		return applySeedData(ctx, q, seedData, cfg)
	})
}

func nukeCommand(args []string) error {
	fs := flag.NewFlagSet("nuke", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	if !*force && !confirmNuke() {
		fmt.Println("operation cancelled")
		return nil
	}

	return nukeDatabase()
}

func resolveFiles(file, dir string) ([]string, error) {
	if file == "" && dir == "" {
		return nil, errors.New("must specify either --file or --dir")
	}

	if file != "" && dir != "" {
		return nil, errors.New("cannot specify both --file and --dir")
	}

	if file != "" {
		return []string{file}, nil
	}

	return findYAMLFiles(dir)
}

func findYAMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && isYAMLFile(path) {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files found in directory: %s", dir)
	}

	return files, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func loadSeedData(files []string) (*SeedData, error) {
	combined := &SeedData{}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}

		var fileData SeedData
		if err := yaml.Unmarshal(data, &fileData); err != nil {
			return nil, fmt.Errorf("failed to parse YAML in %s: %w", file, err)
		}

		combined.Tenants = append(combined.Tenants, fileData.Tenants...)
		combined.Users = append(combined.Users, fileData.Users...)
		combined.Services = append(combined.Services, fileData.Services...)
	}

	return combined, nil
}

var (
	seedPlans    = map[string]bool{tenancy.PlanFree: true, tenancy.PlanBasic: true, tenancy.PlanPro: true, tenancy.PlanEnterprise: true}
	seedStatuses = map[string]bool{tenancy.StatusActive: true, tenancy.StatusTrial: true, tenancy.StatusCancelled: true, tenancy.StatusExpired: true, tenancy.StatusPastDue: true}
	seedServices = map[string]bool{"GROOMING": true, "WALKING": true, "DAYCARE": true, "BOARDING": true, "TRAINING": true, "VETERINARY": true, "OTHER": true}
)

// validateSeedData checks references and enums before anything is written.
func validateSeedData(data *SeedData) error {
	slugs := make(map[string]bool)
	var problems []string
	for _, t := range data.Tenants {
		if t.Name == "" || t.Slug == "" {
			problems = append(problems, "tenant needs name and slug")
		}
		if slugs[t.Slug] {
			problems = append(problems, fmt.Sprintf("duplicate tenant slug %q", t.Slug))
		}
		slugs[t.Slug] = true
		if t.Plan != "" && !seedPlans[t.Plan] {
			problems = append(problems, fmt.Sprintf("tenant %s: unknown plan %q", t.Slug, t.Plan))
		}
		if t.Status != "" && !seedStatuses[t.Status] {
			problems = append(problems, fmt.Sprintf("tenant %s: unknown status %q", t.Slug, t.Status))
		}
		if t.Timezone != "" {
			if err := tenancy.ValidateTimezone(t.Timezone); err != nil {
				problems = append(problems, fmt.Sprintf("tenant %s: %v", t.Slug, err))
			}
		}
	}
	for _, u := range data.Users {
		role, ok := rbac.ParseRole(u.Role)
		if !ok {
			problems = append(problems, fmt.Sprintf("user %s: unknown role %q", u.Email, u.Role))
			continue
		}
		if len(u.Password) < 8 {
			problems = append(problems, fmt.Sprintf("user %s: password must be at least 8 characters", u.Email))
		}
		if len(u.Password) > auth.MaxPasswordBytes {
			problems = append(problems, fmt.Sprintf("user %s: password must be at most %d bytes", u.Email, auth.MaxPasswordBytes))
		}
		if !rbac.IsSuperAdmin(role) && !slugs[u.Tenant] {
			problems = append(problems, fmt.Sprintf("user %s: unknown tenant %q", u.Email, u.Tenant))
		}
	}
	for _, s := range data.Services {
		if !slugs[s.Tenant] {
			problems = append(problems, fmt.Sprintf("service %s: unknown tenant %q", s.Name, s.Tenant))
		}
		if !seedServices[s.Type] {
			problems = append(problems, fmt.Sprintf("service %s: unknown type %q", s.Name, s.Type))
		}
		if s.DurationMinutes <= 0 || s.PriceCents < 0 {
			problems = append(problems, fmt.Sprintf("service %s: duration must be positive and price non-negative", s.Name))
		}
	}

	fmt.Printf("  Tenants: %d\n", len(data.Tenants))
	fmt.Printf("  Users: %d\n", len(data.Users))
	fmt.Printf("  Services: %d\n", len(data.Services))
	if len(problems) > 0 {
		return fmt.Errorf("invalid seed data:\n  %s", strings.Join(problems, "\n  "))
	}
	fmt.Println("data structure is valid")
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func applySeedData(ctx context.Context, queries *db.Queries, data *SeedData, cfg *config.Config) error {
	tenantIDs := make(map[string]uuid.UUID)
	for _, t := range data.Tenants {
		settings, err := tenancy.DefaultSettings(
			t.Name,
			t.Email,
			orDefault(t.Timezone, cfg.App.DefaultTimezone),
			orDefault(t.Locale, cfg.App.DefaultLocale),
		).Marshal()
		if err != nil {
			return err
		}
		tenant, err := queries.CreateTenant(ctx, db.CreateTenantParams{
			Name:     t.Name,
			Slug:     t.Slug,
			Plan:     orDefault(t.Plan, tenancy.PlanFree),
			Status:   orDefault(t.Status, tenancy.StatusActive),
			Settings: settings,
		})
		if err != nil {
			return fmt.Errorf("failed to create tenant %s: %w", t.Slug, err)
		}
		tenantIDs[t.Slug] = tenant.ID
		fmt.Printf("created tenant: %s\n", t.Slug)
	}

	for _, u := range data.Users {
		hash, err := auth.HashPassword(u.Password, cfg.Auth.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", u.Email, err)
		}

		var tenantID *uuid.UUID
		if id, ok := tenantIDs[u.Tenant]; ok {
			tenantID = &id
		}
		user, err := queries.CreateUser(ctx, db.CreateUserParams{
			TenantID:      tenantID,
			Email:         strings.ToLower(u.Email),
			Name:          orDefault(u.Name, u.Email),
			Role:          u.Role,
			EmailVerified: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		if err := queries.CreatePassword(ctx, db.CreatePasswordParams{UserID: user.ID, Hash: hash}); err != nil {
			return fmt.Errorf("failed to store password for %s: %w", u.Email, err)
		}
		fmt.Printf("created user: %s (%s)\n", u.Email, u.Role)
	}

	for _, s := range data.Services {
		_, err := queries.CreateService(ctx, db.CreateServiceParams{
			TenantID:        tenantIDs[s.Tenant],
			Name:            s.Name,
			Description:     pgtype.Text{String: s.Description, Valid: s.Description != ""},
			Type:            s.Type,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
			IsActive:        true,
		})
		if err != nil {
			return fmt.Errorf("failed to create service %s: %w", s.Name, err)
		}
		fmt.Printf("created service: %s for %s\n", s.Name, s.Tenant)
	}

	fmt.Println("seeding completed")
	return nil
}

func nukeDatabase() error {
	cfg := config.Load()
	nukeDB, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer nukeDB.Close()

	ctx := context.Background()
	fmt.Println("rolling back all migrations...")
	if err := nukeDB.Migrate(ctx, "reset"); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}

	fmt.Println("applying all migrations...")
	if err := nukeDB.Migrate(ctx, "up"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	fmt.Println("database reset complete - ready for seeding")
	return nil
}

func confirmNuke() bool {
	fmt.Print("warning: this will delete all data from the database. are you sure? (yes/no): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}

	return strings.ToLower(strings.TrimSpace(response)) == "yes"
}

func printUsage() {
	fmt.Println("Seeder Tool - Database seeding utility for PawDesk")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  seeder <command> [flags]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  seed        Seed tenants, users and services from YAML files")
	fmt.Println("  nuke        Drop all data and re-run migrations")
	fmt.Println("  help        Show this help message")
	fmt.Println()
	fmt.Println("SEED FLAGS:")
	fmt.Println("  --file      Path to a single YAML file")
	fmt.Println("  --dir       Path to directory containing YAML files")
	fmt.Println("  --dry-run   Validate files without making database changes")
	fmt.Println()
	fmt.Println("NUKE FLAGS:")
	fmt.Println("  --force     Skip confirmation prompt")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  seeder seed --file seed/dev.yaml")
	fmt.Println("  seeder seed --dir ./seed/ --dry-run")
	fmt.Println("  seeder nuke --force")
}
