package server

import (
	"strconv"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// bearerToken extracts the token from the Authorization header. A missing
// header is rejected before any service is invoked.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", models.NewUnauthenticatedError("No authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1], nil
	}
	return "", models.NewUnauthenticatedError("Invalid authorization header format")
}

// parsePostFilters reads the GET /api/posts query surface into filters.
// Absent boolean parameters stay unset rather than defaulting to false.
func parsePostFilters(c *fiber.Ctx) models.PostFilters {
	filters := models.PostFilters{
		Category:  c.Query("category"),
		AuthorID:  c.Query("authorId"),
		Search:    c.Query("search"),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 10),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}

	if tags := c.Query("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filters.Tags = append(filters.Tags, tag)
			}
		}
	}

	if raw := c.Query("isPublished"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.IsPublished = &v
		}
	}
	if raw := c.Query("isFeatured"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.IsFeatured = &v
		}
	}

	return filters
}
