package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"photo-album-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the validity window of issued tokens
const TokenTTL = 7 * 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the identity carried by a bearer token
type Claims struct {
	UserID     int64  `json:"userId"`
	TelegramID string `json:"telegramId"`
	AccountID  int64  `json:"accountId"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a token issuer signing with secret
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now
func (s *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *s
	c.now = now
	return &c
}

// Issue generates a token for user
func (s *TokenIssuer) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		AccountID:  user.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify validates a token and returns its claims
func (s *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID <= 0 || claims.AccountID <= 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
