package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photo-album-backend/internal/models"
	"photo-album-backend/internal/services"
)

func TestAuthMiddleware(t *testing.T) {
	issuer := services.NewTokenIssuer("test-secret")
	valid, err := issuer.Issue(&models.User{ID: 7, TelegramID: "100", AccountID: 3})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	past := time.Now().Add(-8 * 24 * time.Hour)
	expired, err := issuer.WithClock(func() time.Time { return past }).
		Issue(&models.User{ID: 7, TelegramID: "100", AccountID: 3})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := GetClaims(r.Context())
		if !ok {
			t.Error("Expected claims in context")
			return
		}
		if claims.AccountID != 3 || claims.UserID != 7 {
			t.Errorf("unexpected claims %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(issuer)(nextHandler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusUnauthorized {
				return
			}

			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["error"] != unauthorizedMessage {
				t.Errorf("expected generic error, got %q", body["error"])
			}
		})
	}
}
