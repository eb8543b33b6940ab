package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"photo-album-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

type wsClient struct {
	id        string
	userID    int64
	accountID int64

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections grouped by account
type WSHub struct {
	mu       sync.RWMutex
	accounts map[int64]map[string]*wsClient
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		accounts: make(map[int64]map[string]*wsClient),
	}
}

// Register adds a connection for a member of accountID and returns its client ID
func (h *WSHub) Register(accountID, userID int64, conn *websocket.Conn) string {
	client := &wsClient{
		id:        uuid.NewString(),
		userID:    userID,
		accountID: accountID,
		conn:      conn,
	}

	h.mu.Lock()
	clients, ok := h.accounts[accountID]
	if !ok {
		clients = make(map[string]*wsClient)
		h.accounts[accountID] = clients
	}
	clients[client.id] = client
	h.mu.Unlock()

	log.Info().
		Str("client_id", client.id).
		Int64("user_id", userID).
		Int64("account_id", accountID).
		Msg("WebSocket connection registered")

	return client.id
}

// Unregister closes and removes a connection
func (h *WSHub) Unregister(accountID int64, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.accounts[accountID]
	if !ok {
		return
	}
	if client, exists := clients[clientID]; exists {
		client.conn.Close()
		delete(clients, clientID)
		log.Info().Str("client_id", clientID).Int64("account_id", accountID).Msg("WebSocket connection unregistered")
	}
	if len(clients) == 0 {
		delete(h.accounts, accountID)
	}
}

// Online returns the number of open connections for accountID
func (h *WSHub) Online(accountID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[accountID])
}

// SendToClient sends a message to a single connection
func (h *WSHub) SendToClient(accountID int64, clientID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.accounts[accountID][clientID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("client %s is not connected", clientID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(accountID, clientID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// BroadcastToAccount sends message to every connection of accountID and returns how many received it
func (h *WSHub) BroadcastToAccount(accountID int64, message WSMessage) int {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", message.Type).Msg("Failed to marshal broadcast message")
		return 0
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.accounts[accountID]))
	for _, c := range h.accounts[accountID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range clients {
		if err := c.write(data); err != nil {
			log.Error().Err(err).Str("client_id", c.id).Int64("account_id", accountID).Msg("Failed to deliver message")
			h.Unregister(accountID, c.id)
			continue
		}
		delivered++
	}
	return delivered
}

// NotifyPhotoAdded tells every connected member of the photo's account about it
func (h *WSHub) NotifyPhotoAdded(photo *models.Photo) int {
	return h.BroadcastToAccount(photo.AccountID, WSMessage{
		Type:      "photo_added",
		Timestamp: time.Now().UnixMilli(),
		Data:      photo,
	})
}

// Close drops every connection. Read loops see the closed socket and unregister themselves.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for accountID, clients := range h.accounts {
		for _, client := range clients {
			client.writeMu.Lock()
			client.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second),
			)
			client.writeMu.Unlock()
			client.conn.Close()
		}
		delete(h.accounts, accountID)
	}
}
