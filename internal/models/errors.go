package models

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrInvalidOrExpiredCode = errors.New("invite code is invalid or expired")
	ErrStorageUnavailable   = errors.New("object storage unavailable")
)
