package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"toolchat/internal/domain"
	"toolchat/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsMaxMessageSize = maxBodySize
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
)

// WSMessage is the JSON protocol for WebSocket communication. Clients send
// frames of type "chat" carrying a request; the server answers with
// "response", "error" or the initial "status".
type WSMessage struct {
	Type     string               `json:"type"` // "chat" | "response" | "error" | "status"
	ID       string               `json:"id,omitempty"`
	Request  *domain.ChatRequest  `json:"request,omitempty"`
	Response *domain.ChatResponse `json:"response,omitempty"`
	Error    string               `json:"error,omitempty"`
	Content  string               `json:"content,omitempty"`
}

// WebSocketHandler runs chat requests arriving over WebSocket connections.
type WebSocketHandler struct {
	chat     Chatter
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient
}

// wsClient tracks a connected WebSocket client.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWebSocketHandler(chat Chatter, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		chat:   chat,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(allowedOrigins, origin)
			},
		},
		clients: make(map[string]*wsClient),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	clientID := uuid.NewString()
	client := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[clientID] = client
	h.mu.Unlock()
	metrics.WSClients.Inc()
	h.logger.Info("websocket client connected", "client_id", clientID)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		h.mu.Lock()
		delete(h.clients, clientID)
		h.mu.Unlock()
		metrics.WSClients.Dec()
		conn.Close()
		h.logger.Info("websocket client disconnected", "client_id", clientID)
	}()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go client.keepAlive(ctx)

	client.send(WSMessage{Type: "status", Content: "connected"})

	for {
		// A chat may outlast the pong window, so the deadline restarts per frame.
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "err", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.send(WSMessage{Type: "error", Error: "invalid JSON: " + err.Error()})
			continue
		}
		if msg.Type != "chat" || msg.Request == nil {
			client.send(WSMessage{Type: "error", ID: msg.ID, Error: fmt.Sprintf("unsupported message type %q", msg.Type)})
			continue
		}

		// Requests on one connection are answered in order.
		resp, err := h.chat.Chat(ctx, *msg.Request)
		if err != nil {
			client.send(WSMessage{Type: "error", ID: msg.ID, Error: err.Error()})
			continue
		}
		client.send(WSMessage{Type: "response", ID: msg.ID, Response: resp})
	}
}

// CloseAll disconnects every client.
func (h *WebSocketHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.conn.Close()
		delete(h.clients, id)
	}
}

func (c *wsClient) send(msg WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
