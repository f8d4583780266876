package server

import (
	"snipstream/internal/models"
	"snipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	notifications, err := s.notificationService.List(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// MarkNotificationsRead handles POST /api/notifications/read. With an empty
// ids list every unread notification of the caller is marked; ids belonging
// to other users are silently ignored.
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	if err := s.notificationService.MarkRead(c.Context(), currentUserID(c), req.IDs); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notifications marked read"})
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// GetPreferences handles GET /api/notifications/preferences
func (s *Server) GetPreferences(c *fiber.Ctx) error {
	prefs, err := s.notificationService.GetPreferences(c.Context(), currentUserID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(prefs)
}

// UpdatePreferences handles PUT /api/notifications/preferences
func (s *Server) UpdatePreferences(c *fiber.Ctx) error {
	var req service.UpdatePreferencesInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	prefs, err := s.notificationService.UpdatePreferences(c.Context(), currentUserID(c), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(prefs)
}
