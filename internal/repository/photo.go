package repository

import (
	"context"
	"fmt"
	"time"

	"photo-album-backend/internal/models"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create creates a new photo and fills its ID
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (s3_url, comment, photo_date, location, account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		photo.S3URL, photo.Comment, photo.PhotoDate, photo.Location, photo.AccountID, photo.CreatedAt,
	).Scan(&photo.ID)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// ListByAccountBetween retrieves the account's photos dated in [from, to)
func (r *PhotoRepository) ListByAccountBetween(ctx context.Context, accountID int64, from, to time.Time) ([]*models.Photo, error) {
	query := `
		SELECT id, s3_url, comment, photo_date, location, account_id, created_at
		FROM photos
		WHERE account_id = $1 AND photo_date >= $2 AND photo_date < $3
		ORDER BY photo_date, id
	`
	rows, err := r.db.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	photos := make([]*models.Photo, 0)
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.S3URL, &photo.Comment, &photo.PhotoDate,
			&photo.Location, &photo.AccountID, &photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, nil
}
