package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

type DBClient struct {
	DB *sql.DB
}

const pixelsSchema = `
CREATE TABLE IF NOT EXISTS pixels (
	id            SERIAL PRIMARY KEY,
	pixel_id      TEXT NOT NULL UNIQUE,
	hashed_secret BYTEA NOT NULL,
	enabled       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

func NewPostgresDB(dbURL string) (*DBClient, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database (ping failed): %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return &DBClient{DB: db}, nil
}

// EnsureSchema creates the pixel account table when it is missing.
func (c *DBClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, pixelsSchema); err != nil {
		return fmt.Errorf("failed to create pixels table: %w", err)
	}
	return nil
}

func (c *DBClient) Close() {
	if c.DB != nil {
		err := c.DB.Close()
		if err != nil {
			log.Printf("Error closing database connection: %v", err)
		} else {
			log.Println("PostgreSQL database connection closed.")
		}
	}
}
