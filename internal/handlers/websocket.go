package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"photo-album-backend/internal/middleware"
	"photo-album-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams account events to connected clients
type WebSocketHandler struct {
	hub      *services.WSHub
	tokens   middleware.TokenVerifier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokens middleware.TokenVerifier, allowedOrigin string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket handles GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on the handshake, so the token may come in the query
	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); token == "" && header != "" {
		token = strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}
	if token == "" {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		respondError(w, unauthorizedMessage, http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	clientID := h.hub.Register(claims.AccountID, claims.UserID, conn)
	defer h.hub.Unregister(claims.AccountID, clientID)

	welcome := services.WSMessage{
		Type:      "connected",
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]interface{}{
			"account_id": claims.AccountID,
			"online":     h.hub.Online(claims.AccountID),
		},
	}
	if err := h.hub.SendToClient(claims.AccountID, clientID, welcome); err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Failed to send welcome message")
		return
	}

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Int64("user_id", claims.UserID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(claims.AccountID, clientID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "ping":
			h.hub.SendToClient(claims.AccountID, clientID, services.WSMessage{
				Type:      "pong",
				Timestamp: time.Now().UnixMilli(),
			})
		default:
			h.sendError(claims.AccountID, clientID, "Unknown message type")
		}
	}
}

// sendError sends an error message to a single client
func (h *WebSocketHandler) sendError(accountID int64, clientID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToClient(accountID, clientID, msg); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Failed to send error message")
	}
}
