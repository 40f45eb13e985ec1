package main

import (
	"log"

	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/container"
	"github.com/pawdesk/pawdesk/internal/logging"
)

func main() {
	cfg := config.Load()

	if err := logging.Init(&cfg.Logging); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	worker, err := container.NewWorker(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize worker: %v", err)
	}

	logging.Info("Starting queue worker", "redis", cfg.Redis.Addr)
	// Run blocks until SIGTERM/SIGINT and drains in-flight tasks
	if err := worker.Run(); err != nil {
		log.Fatalf("Worker stopped: %v", err)
	}
}
