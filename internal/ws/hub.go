package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatbot-studio/internal/logger"
	"chatbot-studio/internal/observability"
	"chatbot-studio/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // editors are served from a separate origin
	},
}

// Client is one editor watching a template
type Client struct {
	hub        *Hub
	templateID string
	conn       *websocket.Conn
	send       chan []byte
}

// Hub fans template change events out to the editors watching that template.
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[c.templateID]; !ok {
		h.rooms[c.templateID] = make(map[*Client]bool)
	}
	h.rooms[c.templateID][c] = true
	observability.IncWSActive()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	clients, ok := h.rooms[c.templateID]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.templateID)
	}
	close(c.send)
	observability.DecWSActive()
}

// RoomSize returns the number of editors watching templateID.
func (h *Hub) RoomSize(templateID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[templateID])
}

// Notify delivers event to every client of its template. Clients whose
// buffer is full are dropped.
func (h *Hub) Notify(ctx context.Context, event service.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Error marshaling WS event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[event.TemplateID] {
		select {
		case client.send <- msg:
		default:
			logger.FromContext(ctx).WithField("template_id", event.TemplateID).Warn("dropping slow websocket client")
			h.removeLocked(client)
		}
	}
}

// ServeTemplate upgrades the request and subscribes the connection to
// templateID. Access to the template must be checked by the caller.
func (h *Hub) ServeTemplate(w http.ResponseWriter, r *http.Request, templateID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{hub: h, templateID: templateID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(client)
	logger.FromContext(r.Context()).WithField("template_id", templateID).Info("WebSocket client registered")

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump only drains control frames; editors never send events.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
