package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"pixeltrack/api/models"
)

var (
	ErrPixelNotFound = errors.New("pixel not found")
	ErrPixelExists   = errors.New("pixel already registered")
)

const uniqueViolation = "23505"

type PixelStore struct {
	db *sql.DB
}

// NewPixelStore creates a new PixelStore instance.
func NewPixelStore(db *sql.DB) *PixelStore {
	return &PixelStore{db: db}
}

// CreatePixel registers a pixel with its hashed secret.
func (s *PixelStore) CreatePixel(ctx context.Context, pixelID string, hashedSecret []byte, enabled bool) (*models.PixelAccount, error) {
	account := &models.PixelAccount{HashedSecret: hashedSecret}
	query := `
		INSERT INTO pixels (pixel_id, hashed_secret, enabled)
		VALUES ($1, $2, $3)
		RETURNING id, pixel_id, enabled, created_at, updated_at;
	`
	err := s.db.QueryRowContext(ctx, query, pixelID, hashedSecret, enabled).Scan(
		&account.ID,
		&account.PixelID,
		&account.Enabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("pixel '%s': %w", pixelID, ErrPixelExists)
		}
		return nil, fmt.Errorf("failed to create pixel: %w", err)
	}

	log.Printf("Pixel registered in DB: ID=%d, PixelID=%s, Enabled=%t", account.ID, account.PixelID, account.Enabled)
	return account, nil
}

func (s *PixelStore) GetPixel(ctx context.Context, pixelID string) (*models.PixelAccount, error) {
	account := &models.PixelAccount{}
	query := `
		SELECT id, pixel_id, hashed_secret, enabled, created_at, updated_at
		FROM pixels
		WHERE pixel_id = $1;
	`
	err := s.db.QueryRowContext(ctx, query, pixelID).Scan(
		&account.ID,
		&account.PixelID,
		&account.HashedSecret,
		&account.Enabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pixel '%s': %w", pixelID, ErrPixelNotFound)
		}
		return nil, fmt.Errorf("failed to get pixel: %w", err)
	}

	return account, nil
}

// SetEnabled switches tracking on or off for a pixel.
func (s *PixelStore) SetEnabled(ctx context.Context, pixelID string, enabled bool) (*models.PixelAccount, error) {
	account := &models.PixelAccount{}
	query := `
		UPDATE pixels SET enabled = $2, updated_at = NOW()
		WHERE pixel_id = $1
		RETURNING id, pixel_id, enabled, created_at, updated_at;
	`
	err := s.db.QueryRowContext(ctx, query, pixelID, enabled).Scan(
		&account.ID,
		&account.PixelID,
		&account.Enabled,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pixel '%s': %w", pixelID, ErrPixelNotFound)
		}
		return nil, fmt.Errorf("failed to update pixel: %w", err)
	}

	log.Printf("Pixel %s tracking enabled=%t", account.PixelID, account.Enabled)
	return account, nil
}
