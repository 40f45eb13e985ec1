package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/aws"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/database"
	"github.com/pawdesk/pawdesk/internal/db"
)

var (
	getPtr    = flag.String("get", "", "Key of object to download")
	linkPtr   = flag.String("link", "", "Key of object to generate a presigned URL for")
	tenantPtr = flag.String("tenant", "", "Tenant ID for -pet")
	petPtr    = flag.String("pet", "", "Pet ID whose stored photo files should be listed")
	bucketPtr = flag.Bool("ensure-bucket", false, "Create the bucket if it does not exist")
)

func main() {
	flag.Parse()

	cfg := config.Load()

	s3Service, err := aws.NewS3Service(cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	ctx := context.Background()

	switch {
	case *bucketPtr:
		if err := s3Service.CreateBucket(ctx); err != nil {
			log.Fatalf("Failed to create bucket: %v", err)
		}
		fmt.Printf("Bucket %s is ready\n", s3Service.Bucket())

	case *getPtr != "":
		key := *getPtr
		fmt.Printf("Retrieving %s from %s...\n", key, s3Service.Bucket())

		body, err := s3Service.GetObject(ctx, key)
		if err != nil {
			log.Fatalf("Failed to get object: %v", err)
		}
		defer body.Close()

		name := filepath.Base(key)
		outFile, err := os.Create(name)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer outFile.Close()

		if _, err := io.Copy(outFile, body); err != nil {
			log.Fatalf("Failed to save object: %v", err)
		}
		fmt.Printf("Object saved to %s\n", name)

	case *linkPtr != "":
		url, err := s3Service.PresignGet(ctx, *linkPtr, 15*time.Minute)
		if err != nil {
			log.Fatalf("Failed to generate presigned URL: %v", err)
		}
		fmt.Printf("Presigned URL for %s (expires in 15m):\n%s\n", *linkPtr, url)

	case *petPtr != "":
		if err := listPetFiles(ctx, cfg, s3Service); err != nil {
			log.Fatal(err)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func listPetFiles(ctx context.Context, cfg *config.Config, s3Service *aws.S3Service) error {
	tenantID, err := uuid.Parse(*tenantPtr)
	if err != nil {
		return fmt.Errorf("-tenant must be a UUID: %w", err)
	}
	petID, err := uuid.Parse(*petPtr)
	if err != nil {
		return fmt.Errorf("-pet must be a UUID: %w", err)
	}

	conn, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer conn.Close()

	files, err := conn.Queries().ListEntityFiles(ctx, db.ListEntityFilesParams{
		TenantID:   tenantID,
		EntityType: audit.EntityPet,
		EntityID:   petID,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No photo stored for this pet.")
		return nil
	}

	fmt.Printf("%-10s %-10s %s\n", "Kind", "Size", "Key")
	fmt.Println("------------------------------------------------------------")
	for _, f := range files {
		fmt.Printf("%-10s %-10d %s\n", f.Kind, f.SizeBytes, f.ObjectKey)
		url, err := s3Service.PresignGet(ctx, f.ObjectKey, 15*time.Minute)
		if err != nil {
			return fmt.Errorf("failed to presign %s: %w", f.ObjectKey, err)
		}
		fmt.Printf("  %s\n", url)
	}
	return nil
}
