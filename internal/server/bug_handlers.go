package server

import (
	"time"

	"snipstream/internal/models"
	"snipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateBug handles POST /api/bugs. Bug reports are time-limited; ttl_hours
// controls how long the report stays visible (default 168, i.e. one week).
func (s *Server) CreateBug(c *fiber.Ctx) error {
	var req struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Severity    string   `json:"severity"`
		Tags        []string `json:"tags"`
		TTLHours    int      `json:"ttl_hours"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	bug, err := s.bugService.Create(c.Context(), service.CreateBugInput{
		AuthorID:    currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Tags:        req.Tags,
		TTL:         time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(bug)
}

// GetBug handles GET /api/bugs/:id. Expired bugs read as not found.
func (s *Server) GetBug(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	bug, err := s.bugService.Get(c.Context(), id, viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(bug)
}

// UpdateBugStatus handles PATCH /api/bugs/:id/status
func (s *Server) UpdateBugStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	bug, err := s.bugService.UpdateStatus(c.Context(), id, currentUserID(c), req.Status)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(bug)
}

// DeleteBug handles DELETE /api/bugs/:id
func (s *Server) DeleteBug(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.bugService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Bug report deleted"})
}
