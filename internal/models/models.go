package models

import (
	"fmt"
	"strings"
	"time"
)

// Account represents a sharing group that owns photos
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents one Telegram identity bound to an account
type User struct {
	ID         int64     `json:"id"`
	TelegramID string    `json:"telegram_id"`
	AccountID  int64     `json:"account_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// InviteCode represents a single-use code that lets a new identity join an account
type InviteCode struct {
	Code      string    `json:"code"`
	AccountID int64     `json:"account_id"`
	CreatedBy int64     `json:"created_by"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// Photo represents an uploaded photo owned by an account
type Photo struct {
	ID        int64     `json:"id"`
	S3URL     string    `json:"s3_url"`
	Comment   string    `json:"comment"`
	PhotoDate time.Time `json:"photo_date"`
	Location  string    `json:"location"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AccountName returns the default name of an account created for telegramID
func AccountName(telegramID string) string {
	return "Account for " + telegramID
}

// NewAccount creates an account record for the given owner identity
func NewAccount(telegramID string, now time.Time) (*Account, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, fmt.Errorf("%w: telegramId is required", ErrValidation)
	}
	return &Account{Name: AccountName(telegramID), CreatedAt: now}, nil
}

// NewUser creates a user record bound to accountID
func NewUser(telegramID string, accountID int64, now time.Time) (*User, error) {
	telegramID = strings.TrimSpace(telegramID)
	if telegramID == "" {
		return nil, fmt.Errorf("%w: telegramId is required", ErrValidation)
	}
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: account id is required", ErrValidation)
	}
	return &User{TelegramID: telegramID, AccountID: accountID, CreatedAt: now}, nil
}

// NewInviteCode creates an unused invite code valid for ttl
func NewInviteCode(code string, issuer *User, now time.Time, ttl time.Duration) (*InviteCode, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}
	if issuer == nil || issuer.AccountID <= 0 {
		return nil, fmt.Errorf("%w: issuing user has no account", ErrValidation)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrValidation)
	}
	return &InviteCode{
		Code:      code,
		AccountID: issuer.AccountID,
		CreatedBy: issuer.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// Redeemable reports whether the code can still be redeemed at now
func (c *InviteCode) Redeemable(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}

// NewPhoto creates a photo record for an uploaded object
func NewPhoto(s3URL, comment string, photoDate time.Time, location string, accountID int64, now time.Time) (*Photo, error) {
	if s3URL == "" {
		return nil, fmt.Errorf("%w: photo url is required", ErrValidation)
	}
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: account id is required", ErrValidation)
	}
	if photoDate.IsZero() {
		return nil, fmt.Errorf("%w: photo date is required", ErrValidation)
	}
	return &Photo{
		S3URL:     s3URL,
		Comment:   comment,
		PhotoDate: photoDate,
		Location:  location,
		AccountID: accountID,
		CreatedAt: now,
	}, nil
}
