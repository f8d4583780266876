package server

import (
	"snipstream/internal/models"
	"snipstream/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchContent returns the browse/search handler for one content kind.
// Matches on a text query over title and body plus optional tags; with no
// query it lists recent public items.
func (s *Server) SearchContent(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := parsePagination(c, 20)
		query := c.Query("q")
		tags := parseTags(c)
		viewer := viewerID(c)

		switch kind {
		case models.KindSnippet:
			items, err := s.snippetService.Search(c.Context(), query, tags, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"snippets": items})
		case models.KindDoc:
			items, err := s.docService.Search(c.Context(), query, tags, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"docs": items})
		default:
			items, err := s.bugService.Search(c.Context(), query, tags, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"bugs": items})
		}
	}
}

// GetUserContent returns the handler listing one author's items of one kind.
func (s *Server) GetUserContent(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		p := parsePagination(c, 20)
		viewer := viewerID(c)

		switch kind {
		case models.KindSnippet:
			items, err := s.snippetService.ListByAuthor(c.Context(), authorID, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"snippets": items})
		case models.KindDoc:
			items, err := s.docService.ListByAuthor(c.Context(), authorID, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"docs": items})
		default:
			items, err := s.bugService.ListByAuthor(c.Context(), authorID, p.Limit, p.Offset, viewer)
			if err != nil {
				return models.RespondWithError(c, err)
			}
			return c.JSON(fiber.Map{"bugs": items})
		}
	}
}

// CreateComment returns the handler posting a comment on one content kind.
func (s *Server) CreateComment(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		var req struct {
			Content  string `json:"content"`
			ParentID *uint  `json:"parent_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
		}

		comment, err := s.commentService.Create(c.Context(), service.CreateCommentInput{
			AuthorID:  currentUserID(c),
			Kind:      kind,
			ContentID: contentID,
			ParentID:  req.ParentID,
			Content:   req.Content,
		})
		if err != nil {
			return models.RespondWithError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	}
}

// GetComments returns the handler listing comments on one content kind.
func (s *Server) GetComments(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		p := parsePagination(c, 20)

		comments, err := s.commentService.List(c.Context(), kind, contentID, p.Limit, p.Offset)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		return c.JSON(fiber.Map{"comments": comments})
	}
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(c.Context(), commentID, currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// ToggleLike returns the handler toggling the viewer's like on one content kind.
func (s *Server) ToggleLike(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		liked, count, err := s.interactionService.ToggleLike(c.Context(), currentUserID(c), kind, contentID)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		return c.JSON(fiber.Map{
			"liked":       liked,
			"likes_count": count,
		})
	}
}

// ToggleBookmark returns the handler toggling the viewer's bookmark on one
// content kind. Bookmarks are private; no events are published.
func (s *Server) ToggleBookmark(kind models.ContentKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		contentID, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		bookmarked, err := s.interactionService.ToggleBookmark(c.Context(), currentUserID(c), kind, contentID)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		return c.JSON(fiber.Map{"bookmarked": bookmarked})
	}
}

// GetBookmarks handles GET /api/bookmarks
func (s *Server) GetBookmarks(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	bookmarks, err := s.interactionService.ListBookmarks(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(fiber.Map{"bookmarks": bookmarks})
}
