package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-album-backend/internal/models"
)

const (
	// InviteTTL is how long an invite code stays redeemable
	InviteTTL = 24 * time.Hour

	inviteCodeBytes = 16
)

// UserStore reads users
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	TelegramIDExists(ctx context.Context, telegramID string) (bool, error)
}

// AccountStore creates and reads accounts
type AccountStore interface {
	CreateWithOwner(ctx context.Context, account *models.Account, owner *models.User) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

// InviteStore stores and redeems invite codes
type InviteStore interface {
	Create(ctx context.Context, invite *models.InviteCode) error
	Redeem(ctx context.Context, code, telegramID string, now time.Time) (*models.User, error)
}

// AuthResult is a user together with a freshly issued token
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// AccountService links Telegram identities to accounts
type AccountService struct {
	users    UserStore
	accounts AccountStore
	invites  InviteStore
	tokens   *TokenIssuer
	now      func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(users UserStore, accounts AccountStore, invites InviteStore, tokens *TokenIssuer) *AccountService {
	return &AccountService{
		users:    users,
		accounts: accounts,
		invites:  invites,
		tokens:   tokens,
		now:      time.Now,
	}
}

// WithClock replaces the service clock. Tests only.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	s.now = now
	return s
}

// CheckUserExists reports whether telegramID already has a user
func (s *AccountService) CheckUserExists(ctx context.Context, telegramID string) (bool, error) {
	telegramID, err := normalizeTelegramID(telegramID)
	if err != nil {
		return false, err
	}
	return s.users.TelegramIDExists(ctx, telegramID)
}

// Authenticate issues a token for an existing identity.
// A nil result with a nil error means the identity is unknown; accounts are
// never created implicitly, CreateAccount must be called instead.
func (s *AccountService) Authenticate(ctx context.Context, telegramID string) (*AuthResult, error) {
	telegramID, err := normalizeTelegramID(telegramID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return s.issue(user)
}

// CreateAccount creates a new account owned by telegramID
func (s *AccountService) CreateAccount(ctx context.Context, telegramID string) (*AuthResult, error) {
	now := s.now()
	account, err := models.NewAccount(telegramID, now)
	if err != nil {
		return nil, err
	}
	owner := &models.User{TelegramID: strings.TrimSpace(telegramID), CreatedAt: now}

	if err := s.accounts.CreateWithOwner(ctx, account, owner); err != nil {
		if errors.Is(err, models.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.issue(owner)
}

// GenerateInviteCode creates an invite code for the account of userID
func (s *AccountService) GenerateInviteCode(ctx context.Context, userID int64) (*models.InviteCode, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, err
	}

	invite, err := models.NewInviteCode(code, user, s.now(), InviteTTL)
	if err != nil {
		return nil, err
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to store invite code: %w", err)
	}

	return invite, nil
}

// JoinWithInviteCode creates a user for telegramID in the account that issued code
func (s *AccountService) JoinWithInviteCode(ctx context.Context, telegramID, code string) (*AuthResult, error) {
	telegramID, err := normalizeTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: inviteCode is required", models.ErrValidation)
	}

	user, err := s.invites.Redeem(ctx, code, telegramID, s.now())
	if err != nil {
		if errors.Is(err, models.ErrUserAlreadyExists) || errors.Is(err, models.ErrInvalidOrExpiredCode) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to redeem invite code: %w", err)
	}

	return s.issue(user)
}

// GetAccount returns the user and the account it belongs to
func (s *AccountService) GetAccount(ctx context.Context, userID int64) (*models.User, *models.Account, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	account, err := s.accounts.GetByID(ctx, user.AccountID)
	if err != nil {
		return nil, nil, err
	}
	return user, account, nil
}

func (s *AccountService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeTelegramID(telegramID string) (string, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return "", fmt.Errorf("%w: telegramId is required", models.ErrValidation)
	}
	return telegramID, nil
}

// generateInviteCode returns 128 random bits, base64url without padding
func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
