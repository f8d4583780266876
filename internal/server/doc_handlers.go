package server

import (
	"snipstream/internal/models"
	"snipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateDoc handles POST /api/docs
func (s *Server) CreateDoc(c *fiber.Ctx) error {
	var req struct {
		Title    string   `json:"title"`
		Body     string   `json:"body"`
		Tags     []string `json:"tags"`
		IsPublic *bool    `json:"is_public"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	doc, err := s.docService.Create(c.Context(), service.CreateDocInput{
		AuthorID: currentUserID(c),
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
		IsPublic: isPublic,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// GetDoc handles GET /api/docs/:id
func (s *Server) GetDoc(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	doc, err := s.docService.Get(c.Context(), id, viewerID(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(doc)
}

// UpdateDoc handles PUT /api/docs/:id
func (s *Server) UpdateDoc(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title string   `json:"title"`
		Body  string   `json:"body"`
		Tags  []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	doc, err := s.docService.Update(c.Context(), service.UpdateDocInput{
		AuthorID: currentUserID(c),
		DocID:    id,
		Title:    req.Title,
		Body:     req.Body,
		Tags:     req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(doc)
}

// DeleteDoc handles DELETE /api/docs/:id
func (s *Server) DeleteDoc(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.docService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Doc deleted"})
}
