package handlers

import (
	"errors"
	"io"
	"net/http"

	"photo-album-backend/internal/middleware"
	"photo-album-backend/internal/models"
	"photo-album-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const photoFormField = "photo"

// PhotoNotifier announces new photos to the members of their account
type PhotoNotifier interface {
	NotifyPhotoAdded(photo *models.Photo) int
}

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService   *services.PhotoService
	notifier       PhotoNotifier
	maxUploadBytes int64
}

// NewPhotoHandler creates a new photo handler. notifier may be nil.
func NewPhotoHandler(photoService *services.PhotoService, notifier PhotoNotifier, maxUploadBytes int64) *PhotoHandler {
	return &PhotoHandler{
		photoService:   photoService,
		notifier:       notifier,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponse is returned by POST /api/photos
type UploadResponse struct {
	Success  bool   `json:"success"`
	PhotoURL string `json:"photoUrl"`
	PhotoID  int64  `json:"photoId"`
}

// GetPhotos handles GET /api/photos?monthKey=YYYY-MM
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	monthKey := r.URL.Query().Get("monthKey")
	photos, err := h.photoService.ListPhotos(ctx, claims.AccountID, monthKey)
	if err != nil {
		log.Error().
			Err(err).
			Int64("account_id", claims.AccountID).
			Str("month_key", monthKey).
			Msg("Failed to get photos")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
	})
}

// UploadPhoto handles POST /api/photos (multipart: photo, comment, date, location)
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	// The whole file is buffered before it is forwarded to storage
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, "photo is too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		respondError(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Int64("account_id", claims.AccountID).Msg("Failed to read uploaded file")
		respondError(w, "failed to read photo", http.StatusBadRequest)
		return
	}

	date, err := services.ParsePhotoDate(r.FormValue("date"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	photo, err := h.photoService.UploadAndRecord(ctx, services.UploadRequest{
		Body:        body,
		Filename:    header.Filename,
		ContentType: contentType,
		Comment:     r.FormValue("comment"),
		Date:        date,
		Location:    r.FormValue("location"),
		AccountID:   claims.AccountID,
	})
	if err != nil {
		log.Error().
			Err(err).
			Int64("account_id", claims.AccountID).
			Str("filename", header.Filename).
			Msg("Failed to upload photo")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Int64("user_id", claims.UserID).
		Int64("account_id", claims.AccountID).
		Int64("photo_id", photo.ID).
		Int("size", len(body)).
		Msg("Photo uploaded")

	// Best effort, a stalled websocket peer must not hold the response
	if h.notifier != nil {
		go h.notifier.NotifyPhotoAdded(photo)
	}

	respondJSON(w, http.StatusCreated, UploadResponse{
		Success:  true,
		PhotoURL: photo.S3URL,
		PhotoID:  photo.ID,
	})
}
