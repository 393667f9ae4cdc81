package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/cleanspin/laundry-ops/internal/config"
	"github.com/cleanspin/laundry-ops/internal/database"
)

func main() {
	var (
		dbURLFlag string
		down      int
		status    bool
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.IntVar(&down, "down", 0, "revert this many migrations instead of migrating up")
	flag.BoolVar(&status, "status", false, "print the current schema version and exit")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		Driver:             os.Getenv("DATABASE_DRIVER"),
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	switch {
	case status:
	case down > 0:
		if err := database.MigrateDown(db, down); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Printf("Reverted %d migration(s)\n", down)
	default:
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Println("Schema is up to date")
	}

	version, dirty, err := database.MigrationVersion(db)
	if err != nil {
		log.Fatalf("failed to read schema version: %v", err)
	}
	fmt.Printf("Schema version: %d (dirty: %t)\n", version, dirty)
}
