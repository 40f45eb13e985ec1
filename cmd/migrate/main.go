package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <up|down|status|reset|version|redo> [args]\n", os.Args[0])
		os.Exit(1)
	}

	cfg := config.Load()
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background(), os.Args[1], os.Args[2:]...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
}
