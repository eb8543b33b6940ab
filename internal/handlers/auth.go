package handlers

import (
	"net/http"
	"time"

	"photo-album-backend/internal/middleware"
	"photo-album-backend/internal/models"
	"photo-album-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AuthHandler handles identity and invite HTTP requests
type AuthHandler struct {
	accountService *services.AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
	}
}

// TelegramRequest is the body of the identity routes
type TelegramRequest struct {
	TelegramID telegramID `json:"telegramId"`
}

// JoinRequest is the body of POST /api/auth/join
type JoinRequest struct {
	TelegramID telegramID `json:"telegramId"`
	InviteCode string     `json:"inviteCode"`
}

// TelegramResponse is returned by POST /api/auth/telegram
type TelegramResponse struct {
	Exists    bool         `json:"exists"`
	Token     string       `json:"token,omitempty"`
	AccountID int64        `json:"accountId,omitempty"`
	User      *models.User `json:"user,omitempty"`
}

// InviteCodeResponse is returned by POST /api/auth/invite-code
type InviteCodeResponse struct {
	InviteCode string    `json:"inviteCode"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Telegram handles POST /api/auth/telegram
func (h *AuthHandler) Telegram(w http.ResponseWriter, r *http.Request) {
	var req TelegramRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.accountService.Authenticate(r.Context(), string(req.TelegramID))
	if err != nil {
		log.Error().Err(err).Str("telegram_id", string(req.TelegramID)).Msg("Failed to authenticate")
		respondServiceError(w, err)
		return
	}

	if result == nil {
		respondJSON(w, http.StatusOK, TelegramResponse{Exists: false})
		return
	}

	log.Info().
		Int64("user_id", result.User.ID).
		Int64("account_id", result.User.AccountID).
		Msg("User authenticated")

	respondJSON(w, http.StatusOK, TelegramResponse{
		Exists:    true,
		Token:     result.Token,
		AccountID: result.User.AccountID,
		User:      result.User,
	})
}

// CheckUser handles POST /api/auth/check-user
func (h *AuthHandler) CheckUser(w http.ResponseWriter, r *http.Request) {
	var req TelegramRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	exists, err := h.accountService.CheckUserExists(r.Context(), string(req.TelegramID))
	if err != nil {
		log.Error().Err(err).Str("telegram_id", string(req.TelegramID)).Msg("Failed to check user")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// CreateAccount handles POST /api/auth/create-account
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req TelegramRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.accountService.CreateAccount(r.Context(), string(req.TelegramID))
	if err != nil {
		log.Error().Err(err).Str("telegram_id", string(req.TelegramID)).Msg("Failed to create account")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("user_id", result.User.ID).
		Int64("account_id", result.User.AccountID).
		Msg("Account created")

	respondJSON(w, http.StatusOK, result)
}

// InviteCode handles POST /api/auth/invite-code
func (h *AuthHandler) InviteCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	invite, err := h.accountService.GenerateInviteCode(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to generate invite code")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("user_id", claims.UserID).
		Int64("account_id", invite.AccountID).
		Time("expires_at", invite.ExpiresAt).
		Msg("Invite code generated")

	respondJSON(w, http.StatusOK, InviteCodeResponse{
		InviteCode: invite.Code,
		ExpiresAt:  invite.ExpiresAt,
	})
}

// Join handles POST /api/auth/join
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := h.accountService.JoinWithInviteCode(r.Context(), string(req.TelegramID), req.InviteCode)
	if err != nil {
		log.Warn().Err(err).Str("telegram_id", string(req.TelegramID)).Msg("Failed to join with invite code")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("user_id", result.User.ID).
		Int64("account_id", result.User.AccountID).
		Msg("User joined account")

	respondJSON(w, http.StatusOK, result)
}

// Account handles GET /api/account
func (h *AuthHandler) Account(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	user, account, err := h.accountService.GetAccount(r.Context(), claims.UserID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to get account")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"account": account,
	})
}
