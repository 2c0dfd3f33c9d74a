package handlers

import (
	"strings"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Glivan2903/fazendo-90/internal/services"
	rosterws "github.com/Glivan2903/fazendo-90/internal/websocket"
)

// RosterHandler serves the live roster feed. Counts are public, the same as
// in the class listing, so no token is needed.
type RosterHandler struct {
	hub   *rosterws.Hub
	today func() time.Time
}

func NewRosterHandler(hub *rosterws.Hub, today func() time.Time) *RosterHandler {
	return &RosterHandler{hub: hub, today: today}
}

func (h *RosterHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.today().Format(time.DateOnly)
	}
	if _, err := services.ParseDay(date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgInvalidDate})
	}

	c.Locals("roster_date", date)
	return c.Next()
}

func (h *RosterHandler) Stream(conn *websocket.Conn) {
	date, _ := conn.Locals("roster_date").(string)
	client := rosterws.NewClient(h.hub, conn, date)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}
