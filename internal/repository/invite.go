package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-album-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// InviteRepository handles database operations for invite codes
type InviteRepository struct {
	db DB
}

// NewInviteRepository creates a new invite repository
func NewInviteRepository(db DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create stores a new invite code
func (r *InviteRepository) Create(ctx context.Context, invite *models.InviteCode) error {
	query := `
		INSERT INTO invite_codes (code, account_id, created_by, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		invite.Code, invite.AccountID, invite.CreatedBy, invite.ExpiresAt, invite.Used, invite.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invite code: %w", err)
	}
	return nil
}

// Redeem consumes code for a new identity and creates its user in the code's account.
//
// The code is claimed with a single conditional UPDATE, so two concurrent
// redemptions cannot both see it unused. The user insert runs in the same
// transaction: if it fails the claim is rolled back and the code stays usable.
func (r *InviteRepository) Redeem(ctx context.Context, code, telegramID string, now time.Time) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = $1)`, telegramID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check telegram id existence: %w", err)
	}
	if exists {
		return nil, models.ErrUserAlreadyExists
	}

	query := `
		UPDATE invite_codes
		SET used = TRUE
		WHERE code = $1 AND used = FALSE AND expires_at > $2
		RETURNING account_id
	`
	var accountID int64
	if err := tx.QueryRow(ctx, query, code, now).Scan(&accountID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("failed to claim invite code: %w", err)
	}

	user, err := models.NewUser(telegramID, accountID, now)
	if err != nil {
		return nil, err
	}
	if err := insertUser(ctx, tx, user); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invite redemption: %w", err)
	}
	return user, nil
}
