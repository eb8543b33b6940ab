package repository

import (
	"context"
	"fmt"

	"photo-album-backend/internal/models"
)

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateWithOwner creates the account and its first user in one transaction.
// The unique constraint on users.telegram_id makes a concurrent duplicate fail
// with models.ErrUserAlreadyExists and leaves no orphan account behind.
func (r *AccountRepository) CreateWithOwner(ctx context.Context, account *models.Account, owner *models.User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO accounts (name, created_at)
		VALUES ($1, $2)
		RETURNING id
	`
	if err := tx.QueryRow(ctx, query, account.Name, account.CreatedAt).Scan(&account.ID); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	owner.AccountID = account.ID
	if err := insertUser(ctx, tx, owner); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT id, name, created_at FROM accounts WHERE id = $1`
	var account models.Account
	if err := r.db.QueryRow(ctx, query, id).Scan(&account.ID, &account.Name, &account.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}
