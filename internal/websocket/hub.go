package rosterws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Glivan2903/fazendo-90/internal/models"
)

// Hub fans roster updates out to clients watching the same calendar day.
type Hub struct {
	clients     map[string]map[*Client]struct{}
	register    chan *Client
	unregister  chan *Client
	resubscribe chan subscription
	replies     chan reply
	broadcast   chan *Message
	done        chan struct{}
}

type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	hub  *Hub
	conn conn
	date string
	send chan []byte
}

type subscription struct {
	client *Client
	date   string
}

type reply struct {
	client  *Client
	payload []byte
}

type Message struct {
	Type          string `json:"type"`
	ClassID       string `json:"class_id,omitempty"`
	Date          string `json:"date,omitempty"`
	AttendeeCount int    `json:"attendee_count"`
	SpotsLeft     int    `json:"spots_left"`
	Error         string `json:"error,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		resubscribe: make(chan subscription),
		replies:     make(chan reply, 16),
		broadcast:   make(chan *Message, 64),
		done:        make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn conn, date string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		date: date,
		send: make(chan []byte, 32),
	}
}

// Run owns the client sets until ctx ends. Once it returns, sends from
// clients are dropped instead of blocking.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for date, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, date)
			}
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			if h.detach(client) {
				close(client.send)
			}
		case sub := <-h.resubscribe:
			if h.detach(sub.client) {
				sub.client.date = sub.date
				h.add(sub.client)
			}
		case r := <-h.replies:
			if _, ok := h.clients[r.client.date][r.client]; ok {
				select {
				case r.client.send <- r.payload:
				default:
				}
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast never blocks the caller. Updates are dropped when the hub is
// saturated; clients re-read the listing on their next refresh anyway.
func (h *Hub) Broadcast(update models.RosterUpdate) {
	message := &Message{
		Type:          "roster",
		ClassID:       update.ClassID,
		Date:          update.Date,
		AttendeeCount: update.AttendeeCount,
		SpotsLeft:     update.SpotsLeft,
	}
	select {
	case h.broadcast <- message:
	default:
		log.Warn().Str("class_id", update.ClassID).Msg("roster hub saturated, dropping update")
	}
}

func (h *Hub) add(client *Client) {
	set, ok := h.clients[client.date]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[client.date] = set
	}
	set[client] = struct{}{}
}

// detach removes the client from its day without closing its outbox.
func (h *Hub) detach(client *Client) bool {
	set, ok := h.clients[client.date]
	if !ok {
		return false
	}
	_, exists := set[client]
	delete(set, client)
	if len(set) == 0 {
		delete(h.clients, client.date)
	}
	return exists
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("roster hub encode message")
		return
	}

	set, ok := h.clients[message.Date]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- encoded:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, message.Date)
	}
}

// ReadPump handles client control frames until the connection drops. A
// client may switch days with {"type":"subscribe","date":"YYYY-MM-DD"}.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
			Date string `json:"date"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}

		switch incoming.Type {
		case "ping":
			c.write(Message{Type: "pong"})
		case "subscribe":
			if _, err := time.Parse(time.DateOnly, incoming.Date); err != nil {
				c.writeError("invalid date")
				continue
			}
			select {
			case c.hub.resubscribe <- subscription{client: c, date: incoming.Date}:
			case <-c.hub.done:
				return
			}
		default:
			c.writeError("unsupported message type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	c.write(Message{Type: "error", Error: message})
}

func (c *Client) write(message Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case c.hub.replies <- reply{client: c, payload: payload}:
	case <-c.hub.done:
	}
}
