package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photo-album-backend/internal/middleware"
	"photo-album-backend/internal/models"
	"photo-album-backend/internal/repository/memstore"
	"photo-album-backend/internal/services"
)

type blockingNotifier struct {
	release  chan struct{}
	notified chan *models.Photo
}

func (n *blockingNotifier) NotifyPhotoAdded(photo *models.Photo) int {
	<-n.release
	n.notified <- photo
	return 1
}

func TestUploadDoesNotWaitForNotification(t *testing.T) {
	store := memstore.New()
	photos := services.NewPhotoService(store.Photos(), memstore.NewObjects("https://storage.example/album"))
	notifier := &blockingNotifier{
		release:  make(chan struct{}),
		notified: make(chan *models.Photo, 1),
	}
	handler := NewPhotoHandler(photos, notifier, 1<<20)

	req := newUploadRequest(t, "", map[string]string{"date": "2024-05-15"}, "a.jpg", []byte("jpeg"))
	req = req.WithContext(middleware.WithClaims(req.Context(), &services.Claims{UserID: 1, AccountID: 7}))
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		handler.UploadPhoto(rr, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		close(notifier.release)
		t.Fatal("upload response waited for the notifier")
	}
	expectStatus(t, rr, http.StatusCreated)

	close(notifier.release)
	select {
	case photo := <-notifier.notified:
		if photo.AccountID != 7 {
			t.Errorf("notified for account %d, want 7", photo.AccountID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notifier was never called")
	}
}

func TestUploadWithoutNotifier(t *testing.T) {
	store := memstore.New()
	photos := services.NewPhotoService(store.Photos(), memstore.NewObjects("https://storage.example/album"))
	handler := NewPhotoHandler(photos, nil, 1<<20)

	req := newUploadRequest(t, "", map[string]string{"date": "2024-05-15"}, "a.jpg", []byte("jpeg"))
	req = req.WithContext(middleware.WithClaims(req.Context(), &services.Claims{UserID: 1, AccountID: 7}))
	rr := httptest.NewRecorder()
	handler.UploadPhoto(rr, req)

	expectStatus(t, rr, http.StatusCreated)
	if store.PhotoCount() != 1 {
		t.Errorf("expected one photo, got %d", store.PhotoCount())
	}
}
