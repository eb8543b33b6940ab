package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"photo-album-backend/internal/models"
)

const (
	photoKeyPrefix = "photos/"
	monthKeyLayout = "2006-01"
	// PhotoDateLayout is the accepted format of the upload date field
	PhotoDateLayout = "2006-01-02"
)

// ObjectStore stores bytes and returns a publicly addressable URL
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// PhotoStore persists photo metadata
type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	ListByAccountBetween(ctx context.Context, accountID int64, from, to time.Time) ([]*models.Photo, error)
}

// UploadRequest is a buffered photo upload scoped to an account
type UploadRequest struct {
	Body        []byte
	Filename    string
	ContentType string
	Comment     string
	Date        time.Time
	Location    string
	AccountID   int64
}

// PhotoService handles photo-related business logic
type PhotoService struct {
	photoRepo PhotoStore
	objects   ObjectStore
	now       func() time.Time
}

// NewPhotoService creates a new photo service
func NewPhotoService(photoRepo PhotoStore, objects ObjectStore) *PhotoService {
	return &PhotoService{
		photoRepo: photoRepo,
		objects:   objects,
		now:       time.Now,
	}
}

// Upload stores the bytes in object storage and returns the object URL
func (s *PhotoService) Upload(ctx context.Context, body []byte, filename, contentType string, accountID int64) (string, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("%w: photo file is empty", models.ErrValidation)
	}
	if accountID <= 0 {
		return "", fmt.Errorf("%w: account id is required", models.ErrValidation)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(s.now(), filename)
	url, err := s.objects.Put(ctx, key, body, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}
	return url, nil
}

// RecordPhoto stores photo metadata for accountID and returns the new photo
func (s *PhotoService) RecordPhoto(ctx context.Context, url, comment string, date time.Time, location string, accountID int64) (*models.Photo, error) {
	photo, err := models.NewPhoto(url, comment, date, location, accountID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, fmt.Errorf("failed to create photo record: %w", err)
	}
	return photo, nil
}

// UploadAndRecord uploads the photo and records it. Nothing is recorded if the upload fails.
func (s *PhotoService) UploadAndRecord(ctx context.Context, req UploadRequest) (*models.Photo, error) {
	url, err := s.Upload(ctx, req.Body, req.Filename, req.ContentType, req.AccountID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = truncateToDay(s.now())
	}
	return s.RecordPhoto(ctx, url, req.Comment, date, req.Location, req.AccountID)
}

// ListPhotos returns the account's photos for monthKey (YYYY-MM)
func (s *PhotoService) ListPhotos(ctx context.Context, accountID int64, monthKey string) ([]*models.Photo, error) {
	from, err := time.Parse(monthKeyLayout, strings.TrimSpace(monthKey))
	if err != nil {
		return nil, fmt.Errorf("%w: monthKey must be YYYY-MM", models.ErrValidation)
	}
	to := from.AddDate(0, 1, 0)

	return s.photoRepo.ListByAccountBetween(ctx, accountID, from, to)
}

// ObjectKey builds the storage key: a millisecond timestamp prefix plus the sanitized file name
func ObjectKey(now time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", photoKeyPrefix, now.UnixMilli(), sanitizeFilename(filename))
}

// ParsePhotoDate parses the upload date field (YYYY-MM-DD). Empty input yields the zero time.
func ParsePhotoDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	date, err := time.Parse(PhotoDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrValidation)
	}
	return date, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "photo"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
