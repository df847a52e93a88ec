package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var in service.CreatePostInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.postSvc.CreatePost(c.Context(), in, token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postSvc.GetPosts(c.Context(), parsePostFilters(c))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithPage(c, page.Posts, page.Pagination)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postSvc.GetPostByID(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// GetPostBySlug handles GET /api/posts/slug/:slug
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.postSvc.GetPostBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var in service.UpdatePostInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	in.ID = c.Params("id")

	post, err := s.postSvc.UpdatePost(c.Context(), in, token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.postSvc.DeletePost(c.Context(), c.Params("id"), token); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// PublishPost handles POST /api/posts/:id/publish
func (s *Server) PublishPost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postSvc.PublishPost(c.Context(), c.Params("id"), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// UnpublishPost handles POST /api/posts/:id/unpublish
func (s *Server) UnpublishPost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postSvc.UnpublishPost(c.Context(), c.Params("id"), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// IncrementViewCount handles POST /api/posts/:id/view. Unauthenticated:
// every reader counts.
func (s *Server) IncrementViewCount(c *fiber.Ctx) error {
	post, err := s.postSvc.IncrementViewCount(c.Context(), c.Params("id"))
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postSvc.LikePost(c.Context(), c.Params("id"), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postSvc.UnlikePost(c.Context(), c.Params("id"), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, post)
}
