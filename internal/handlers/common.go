package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"photo-album-backend/internal/models"
	"photo-album-backend/internal/services"
)

const (
	unauthorizedMessage = "unauthorized"
	internalMessage     = "internal server error"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrTokenInvalid), errors.Is(err, services.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrUserAlreadyExists),
		errors.Is(err, models.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal details stay in the logs.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		respondError(w, internalMessage, status)
	case http.StatusUnauthorized:
		respondError(w, unauthorizedMessage, status)
	default:
		respondError(w, err.Error(), status)
	}
}

// telegramID accepts both JSON strings and numbers, Telegram clients send either.
// Numbers are normalized to their integer decimal form, so 1e3 and 1000 are the same identity.
type telegramID string

func (t *telegramID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = telegramID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: telegramId must be a string or a number", models.ErrValidation)
	}
	r, ok := new(big.Rat).SetString(n.String())
	if !ok || !r.IsInt() {
		return fmt.Errorf("%w: telegramId must be an integer", models.ErrValidation)
	}
	*t = telegramID(r.Num().String())
	return nil
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: invalid request body", models.ErrValidation)
	}
	return nil
}
