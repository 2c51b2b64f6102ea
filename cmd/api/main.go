package main

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"mcnemar/adapters/jsonfile"
	"mcnemar/adapters/postgres"
	"mcnemar/internal/analysis"
	"mcnemar/internal/api"
	"mcnemar/internal/config"
	"mcnemar/internal/errors"
	"mcnemar/internal/migration"
	"mcnemar/ports"
)

// initDatabase connects to PostgreSQL and brings the schema up to date.
func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// A configured DATABASE_URL selects the PostgreSQL ledger; otherwise
	// result records land as JSON files under the ledger directory.
	var ledger ports.ResultLedger
	if cfg.Database.URL != "" {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		ledger = postgres.NewLedgerRepository(db)
		log.Println("Using PostgreSQL result ledger")
	} else {
		ledger = jsonfile.NewLedger(cfg.Ledger.Dir)
		log.Printf("Using JSON file result ledger at %s", cfg.Ledger.Dir)
	}

	runner := analysis.NewBatchRunner(int64(cfg.Batch.MaxConcurrency))
	server := api.NewServer(runner, ledger, cfg.Server.GinMode)

	log.Printf("Starting McNemar API server on port %s", cfg.Server.Port)
	log.Fatal(server.Start(":" + cfg.Server.Port))
}
