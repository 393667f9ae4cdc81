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

// workflow tables, children first
var tables = []string{
	"audit_logs",
	"bypass_requests",
	"station_orders",
	"attendances",
	"outlet_staff",
}

func main() {
	var dbURLFlag string
	var keepStaff bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&keepStaff, "keep-staff", false, "keep outlet_staff rows")
	flag.Parse()

	// .env is optional; it avoids passing secrets on the command line
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
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	targets := tables
	if keepStaff {
		targets = tables[:len(tables)-1]
	}

	fmt.Println("Connected to database. Truncating tables...")
	truncateSQL := "TRUNCATE TABLE "
	for i, t := range targets {
		if i > 0 {
			truncateSQL += ", "
		}
		truncateSQL += t
	}
	truncateSQL += " RESTART IDENTITY CASCADE"

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("All data cleared successfully (tables truncated, identities reset).")

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
