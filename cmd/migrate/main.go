package main

import (
	"context"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"mcnemar/adapters/jsonfile"
	"mcnemar/adapters/postgres"
	"mcnemar/internal/migration"
	"mcnemar/ports"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> [ledger_dir] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Schema migration failed: %v", err)
	}
	log.Println("Schema is up to date")

	if len(os.Args) < 3 {
		return
	}

	// An optional ledger directory imports existing JSON file records into
	// the database.
	ledgerDir := os.Args[2]
	log.Printf("Importing result records from %s", ledgerDir)

	source := jsonfile.NewLedger(ledgerDir)
	target := postgres.NewLedgerRepository(db)

	records, err := source.ListResults(ctx, ports.ResultFilters{})
	if err != nil {
		log.Fatalf("Failed to read JSON ledger: %v", err)
	}
	log.Printf("Found %d result records to migrate", len(records))

	migrated := 0
	skipped := 0
	for _, record := range records {
		// Records already present keep their stored row.
		if _, err := target.GetResult(ctx, record.ID); err == nil {
			skipped++
			continue
		}

		if err := target.StoreResult(ctx, record); err != nil {
			log.Printf("Failed to store record %s: %v", record.ID, err)
			skipped++
			continue
		}

		migrated++
		log.Printf("Migrated record %s (%s)", record.ID, record.Label)
	}

	log.Printf("Migration complete: %d migrated, %d skipped", migrated, skipped)
}
