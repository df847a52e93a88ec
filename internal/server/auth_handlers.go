package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, models.NewValidationError("Email and password are required"))
	}

	session, err := s.authSvc.Signup(c.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusCreated, session)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, models.NewValidationError("Email and password are required"))
	}

	session, err := s.authSvc.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, session)
}

// Logout handles POST /api/auth/logout. It revokes every session of the
// calling user, not just the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.authSvc.VerifyToken(c.Context(), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.authSvc.Logout(c.Context(), user.UID); err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// VerifyToken handles GET /api/auth/verify
func (s *Server) VerifyToken(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.authSvc.VerifyToken(c.Context(), token)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"user": user})
}
