package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires a full server against an in-memory database with no
// Redis. Rate limits fail open without Redis, so every request goes through.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserProfile{}, &models.Post{}, &identity.Credential{}))

	cfg := &config.Config{
		Port:      "8080",
		JWTSecret: "test-signing-secret",
		Env:       "test",
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	provider := identity.NewLocalProvider(db, cfg.JWTSecret)
	authSvc := service.NewAuthService(provider, userRepo)
	postSvc := service.NewPostService(postRepo, authSvc, cache.New(nil))

	s := &Server{
		config:  cfg,
		db:      db,
		authSvc: authSvc,
		postSvc: postSvc,
	}

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Error      *models.ErrorBody  `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp.StatusCode, env
}

func signupUser(t *testing.T, app *fiber.App, email, displayName string) (token string, user models.UserProfile) {
	status, env := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"email":       email,
		"password":    "secret123",
		"displayName": displayName,
	})
	require.Equal(t, http.StatusCreated, status)

	var session struct {
		User    models.UserProfile `json:"user"`
		IDToken string             `json:"idToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.IDToken)
	return session.IDToken, session.User
}

func createPost(t *testing.T, app *fiber.App, token string, body fiber.Map) models.Post {
	status, env := doJSON(t, app, http.MethodPost, "/api/posts", token, body)
	require.Equal(t, http.StatusCreated, status)

	var post models.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	return post
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/probe", func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		return c.SendString(token)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid bearer", "Bearer abc123", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc123", http.StatusUnauthorized},
		{"bare token", "abc123", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestParsePostFilters(t *testing.T) {
	app := fiber.New()
	var got models.PostFilters
	app.Get("/probe", func(c *fiber.Ctx) error {
		got = parsePostFilters(c)
		return c.SendStatus(http.StatusOK)
	})

	probe := func(query string) models.PostFilters {
		req := httptest.NewRequest(http.MethodGet, "/probe?"+query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return got
	}

	t.Run("defaults", func(t *testing.T) {
		f := probe("")
		require.Equal(t, 1, f.Page)
		require.Equal(t, 10, f.Limit)
		require.Nil(t, f.IsPublished)
		require.Nil(t, f.IsFeatured)
		require.Empty(t, f.Tags)
	})

	t.Run("full query surface", func(t *testing.T) {
		f := probe("category=Technology&tags=go,%20web%20,&isPublished=true&isFeatured=false&authorId=uid-1&search=chan&page=3&limit=25&sortBy=viewCount&sortOrder=asc")
		require.Equal(t, "Technology", f.Category)
		require.Equal(t, []string{"go", "web"}, f.Tags)
		require.NotNil(t, f.IsPublished)
		require.True(t, *f.IsPublished)
		require.NotNil(t, f.IsFeatured)
		require.False(t, *f.IsFeatured)
		require.Equal(t, "uid-1", f.AuthorID)
		require.Equal(t, "chan", f.Search)
		require.Equal(t, 3, f.Page)
		require.Equal(t, 25, f.Limit)
		require.Equal(t, "viewCount", f.SortBy)
		require.Equal(t, "asc", f.SortOrder)
	})

	t.Run("malformed booleans stay unset", func(t *testing.T) {
		f := probe("isPublished=maybe&isFeatured=")
		require.Nil(t, f.IsPublished)
		require.Nil(t, f.IsFeatured)
	})
}
