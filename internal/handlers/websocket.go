package handlers

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/mustaqeer/mustaqeer-api/internal/middleware"
)

// Event types sent over WebSocket
const (
	EventMemberJoined = "member_joined"
	EventMemberLeft   = "member_left"
	EventKhatmah      = "khatmah"
)

// WSEvent is the JSON message sent to connected clients
type WSEvent struct {
	Type      string      `json:"type"`
	EpisodeID string      `json:"episodeId"`
	UserID    string      `json:"userId"`
	Data      interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
}

// Hub manages WebSocket connections per episode
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // episodeID -> set of connections
}

// Global hub instance
var WS = &Hub{
	rooms: make(map[uuid.UUID]map[*connection]bool),
}

// register adds a connection to an episode room
func (h *Hub) register(episodeID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[episodeID] == nil {
		h.rooms[episodeID] = make(map[*connection]bool)
	}
	h.rooms[episodeID][conn] = true
	log.Printf("WS register: user %s joined episode %s (total: %d)", conn.userID, episodeID, len(h.rooms[episodeID]))
}

// unregister removes a connection from an episode room
func (h *Hub) unregister(episodeID uuid.UUID, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[episodeID]; ok {
		delete(conns, conn)
		log.Printf("WS unregister: user %s left episode %s (remaining: %d)", conn.userID, episodeID, len(conns))
		if len(conns) == 0 {
			delete(h.rooms, episodeID)
		}
	}
}

// Broadcast sends an event to all connections in an episode room, excluding the sender
func (h *Hub) Broadcast(episodeID uuid.UUID, excludeUserID uuid.UUID, event WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[episodeID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}

	for c := range conns {
		// Don't send to the user who triggered the event
		if c.userID == excludeUserID {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}

// WebSocketUpgrade is the middleware that checks the upgrade request and validates JWT
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// Authenticate via query param: ?token=<jwt>
		tokenString := c.Query("token")
		if tokenString == "" {
			// Also check Authorization header for non-browser clients
			authHeader := c.Get("Authorization")
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				tokenString = ""
			}
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		claims, err := middleware.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}

// HandleWebSocket handles a WebSocket connection for a specific episode
func HandleWebSocket(c *websocket.Conn) {
	episodeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Close()
		return
	}

	userID, ok := c.Locals("userId").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}

	conn := &connection{conn: c, userID: userID}
	WS.register(episodeID, conn)
	defer WS.unregister(episodeID, conn)

	// Keep the connection alive; clients send pings and keepalives
	for {
		_, _, err := c.ReadMessage()
		if err != nil {
			break
		}
	}
}
