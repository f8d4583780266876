package server

import (
	"snipstream/internal/models"
	"snipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateSnippet handles POST /api/snippets
func (s *Server) CreateSnippet(c *fiber.Ctx) error {
	var req struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Language string   `json:"language"`
		Tags     []string `json:"tags"`
		IsPublic *bool    `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	// Snippets default to public.
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	snippet, err := s.snippetService.Create(c.Context(), service.CreateSnippetInput{
		AuthorID: currentUserID(c),
		Title:    req.Title,
		Content:  req.Content,
		Language: req.Language,
		Tags:     req.Tags,
		IsPublic: isPublic,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snippet)
}

// GetSnippet handles GET /api/snippets/:id
func (s *Server) GetSnippet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	snippet, err := s.snippetService.Get(c.Context(), id, viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(snippet)
}

// UpdateSnippet handles PUT /api/snippets/:id
func (s *Server) UpdateSnippet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    string   `json:"title"`
		Content  string   `json:"content"`
		Language string   `json:"language"`
		Tags     []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	snippet, err := s.snippetService.Update(c.Context(), service.UpdateSnippetInput{
		AuthorID:  currentUserID(c),
		SnippetID: id,
		Title:     req.Title,
		Content:   req.Content,
		Language:  req.Language,
		Tags:      req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(snippet)
}

// DeleteSnippet handles DELETE /api/snippets/:id
func (s *Server) DeleteSnippet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.snippetService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Snippet deleted"})
}
