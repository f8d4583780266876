package server

import (
	"snipstream/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?page=&limit=. Signed-in viewers get a
// personalized merge of followed authors' snippets, docs, and active bug
// reports; anonymous viewers (and viewers following no one) fall back to
// recent public snippets.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	feed, err := s.feedService.GetFeed(c.Context(), viewerID(c), page, limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(feed)
}
