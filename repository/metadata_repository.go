package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wishgrab/database"
	"wishgrab/models"
)

// MetadataRepository stores finished extractions in the metadata_cache
// table. Rows carry an expiry timestamp; expired rows are treated as
// misses on read and swept by the cache janitor.
type MetadataRepository struct {
	ttl time.Duration
}

func NewMetadataRepository(ttl time.Duration) *MetadataRepository {
	return &MetadataRepository{ttl: ttl}
}

// Get returns the cached metadata for a normalized URL, if still fresh
func (r *MetadataRepository) Get(ctx context.Context, normalizedURL string) (models.ProductMetadata, bool) {
	query := `
		SELECT title, description, image_url, price, is_title_valid, is_image_valid, validation_message
		FROM metadata_cache
		WHERE normalized_url = $1 AND expires_at > $2
	`

	var meta models.ProductMetadata
	err := database.DB.QueryRowContext(ctx, query, normalizedURL, time.Now()).Scan(
		&meta.Title, &meta.Description, &meta.ImageURL, &meta.Price,
		&meta.IsTitleValid, &meta.IsImageValid, &meta.ValidationMessage,
	)
	if err == sql.ErrNoRows {
		return models.ProductMetadata{}, false
	}
	if err != nil {
		return models.ProductMetadata{}, false
	}
	return meta, true
}

// Put upserts the metadata for a normalized URL and refreshes its expiry
func (r *MetadataRepository) Put(ctx context.Context, normalizedURL string, meta models.ProductMetadata) error {
	query := `
		INSERT INTO metadata_cache (normalized_url, title, description, image_url, price, is_title_valid, is_image_valid, validation_message, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (normalized_url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			price = EXCLUDED.price,
			is_title_valid = EXCLUDED.is_title_valid,
			is_image_valid = EXCLUDED.is_image_valid,
			validation_message = EXCLUDED.validation_message,
			expires_at = EXCLUDED.expires_at
	`

	now := time.Now()
	_, err := database.DB.ExecContext(ctx, query, normalizedURL,
		meta.Title, meta.Description, meta.ImageURL, meta.Price,
		meta.IsTitleValid, meta.IsImageValid, meta.ValidationMessage,
		now, now.Add(r.ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to cache metadata: %v", err)
	}
	return nil
}

// PurgeExpired deletes rows past their expiry and returns how many went
func (r *MetadataRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := database.DB.ExecContext(ctx, `DELETE FROM metadata_cache WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache rows: %v", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// CountEntries returns the number of rows currently cached
func (r *MetadataRepository) CountEntries(ctx context.Context) (int, error) {
	var n int
	err := database.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata_cache`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %v", err)
	}
	return n, nil
}
