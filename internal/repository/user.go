package repository

import (
	"context"
	"errors"
	"fmt"

	"photo-album-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, telegram_id, account_id, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByTelegramID retrieves a user by Telegram identity
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	query := `
		SELECT id, telegram_id, account_id, created_at
		FROM users
		WHERE telegram_id = $1
	`
	return scanUser(r.db.QueryRow(ctx, query, telegramID))
}

// TelegramIDExists checks if a Telegram identity already has a user
func (r *UserRepository) TelegramIDExists(ctx context.Context, telegramID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, telegramID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check telegram id existence: %w", err)
	}
	return exists, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.TelegramID, &user.AccountID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// insertUser inserts user inside tx and fills its ID.
// A duplicate telegram_id is reported as models.ErrUserAlreadyExists.
func insertUser(ctx context.Context, tx pgx.Tx, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, account_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := tx.QueryRow(ctx, query, user.TelegramID, user.AccountID, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
