package handler

import (
	"github.com/gofiber/fiber/v2"

	"collab-backend/internal/presence"
)

// PresenceHandler 접속자 조회 핸들러
type PresenceHandler struct {
	manager *presence.Manager
}

// NewPresenceHandler PresenceHandler 생성
func NewPresenceHandler(manager *presence.Manager) *PresenceHandler {
	return &PresenceHandler{manager: manager}
}

// GetOnlineUsers lists the users currently marked online by the relay.
func (h *PresenceHandler) GetOnlineUsers(c *fiber.Ctx) error {
	if h.manager == nil {
		return c.JSON(fiber.Map{"users": []presence.Entry{}, "total": 0})
	}

	entries, err := h.manager.ListOnline(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list online users",
		})
	}

	return c.JSON(fiber.Map{
		"users": entries,
		"total": len(entries),
	})
}
