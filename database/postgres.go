package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase opens the Postgres connection used for the metadata cache.
// The cache is optional: callers should skip initialization entirely when
// no DATABASE_URL is configured.
func InitDatabase(dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the metadata cache table if it doesn't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS metadata_cache (
			id SERIAL PRIMARY KEY,
			normalized_url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			price TEXT NOT NULL DEFAULT '',
			is_title_valid BOOLEAN NOT NULL DEFAULT FALSE,
			is_image_valid BOOLEAN NOT NULL DEFAULT FALSE,
			validation_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_metadata_cache_url ON metadata_cache (normalized_url)`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_cache_expiry ON metadata_cache (expires_at)`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
