package handlers

import (
	"net/http"

	"photo-album-backend/internal/middleware"
	"photo-album-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds everything the HTTP surface is composed of
type RouterConfig struct {
	AccountService *services.AccountService
	PhotoService   *services.PhotoService
	Tokens         *services.TokenIssuer
	Hub            *services.WSHub
	AllowedOrigin  string
	StaticDir      string
	MaxUploadBytes int64
	RequestLogging bool
}

// NewRouter builds the API routes
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.AccountService)
	var notifier PhotoNotifier
	if cfg.Hub != nil {
		notifier = cfg.Hub
	}
	photoHandler := NewPhotoHandler(cfg.PhotoService, notifier, cfg.MaxUploadBytes)
	wsHandler := NewWebSocketHandler(cfg.Hub, cfg.Tokens, cfg.AllowedOrigin)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	if cfg.RequestLogging {
		r.Use(chiMiddleware.Logger)
	}
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware(cfg.AllowedOrigin))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/telegram", authHandler.Telegram)
		r.Post("/auth/check-user", authHandler.CheckUser)
		r.Post("/auth/create-account", authHandler.CreateAccount)
		r.Post("/auth/join", authHandler.Join)
		r.Get("/ws", wsHandler.HandleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.Tokens))
			r.Post("/auth/invite-code", authHandler.InviteCode)
			r.Get("/account", authHandler.Account)
			r.Get("/photos", photoHandler.GetPhotos)
			r.Post("/photos", photoHandler.UploadPhoto)
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if allowedOrigin != "*" {
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
