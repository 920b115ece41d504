package main

import (
	"context"
	"log"
	"os"
	"time"

	"veritas/internal/config"
	"veritas/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	databaseURL := ""
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	} else if cfg, err := config.Load(); err == nil {
		databaseURL = cfg.Database.URL
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> (or set DATABASE_URL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Schema %s applied", runner.Version())
}
