package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	_, app := newTestServer(t)
	token, user := signupUser(t, app, "writer@example.com", "Writer")

	t.Run("published post", func(t *testing.T) {
		post := createPost(t, app, token, fiber.Map{
			"title":       "Hello, World!  Foo",
			"content":     "Body",
			"category":    "Technology",
			"tags":        []string{"golang", "webdev"},
			"isPublished": true,
		})

		assert.NotEmpty(t, post.ID)
		assert.Equal(t, "hello-world-foo", post.Slug)
		assert.Equal(t, user.UID, post.AuthorID)
		assert.Equal(t, "Writer", post.AuthorName)
		assert.True(t, post.IsPublished)
		assert.NotNil(t, post.PublishedAt)
	})

	t.Run("draft", func(t *testing.T) {
		post := createPost(t, app, token, fiber.Map{"title": "Draft", "content": "Body"})
		assert.False(t, post.IsPublished)
		assert.Nil(t, post.PublishedAt)
	})

	t.Run("without token", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPost, "/api/posts", "", fiber.Map{
			"title": "T", "content": "C",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "No authorization header", env.Error.Message)
	})

	t.Run("missing title", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPost, "/api/posts", token, fiber.Map{"content": "C"})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestGetPosts(t *testing.T) {
	_, app := newTestServer(t)
	token, user := signupUser(t, app, "writer@example.com", "Writer")

	for i := 0; i < 12; i++ {
		createPost(t, app, token, fiber.Map{
			"title":       fmt.Sprintf("Published %02d", i),
			"content":     "Body",
			"category":    "Technology",
			"isPublished": true,
		})
	}
	createPost(t, app, token, fiber.Map{
		"title":    "Hidden Draft",
		"content":  "Body",
		"category": "Technology",
	})

	decode := func(env envelope) []models.Post {
		var posts []models.Post
		require.NoError(t, json.Unmarshal(env.Data, &posts))
		return posts
	}

	t.Run("default page", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode(env), 10)
		require.NotNil(t, env.Pagination)
		assert.Equal(t, int64(13), env.Pagination.Total)
		assert.Equal(t, int64(2), env.Pagination.TotalPages)
	})

	t.Run("published filter hides drafts", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts?isPublished=true&limit=50", "", nil)
		require.Equal(t, http.StatusOK, status)
		posts := decode(env)
		assert.Len(t, posts, 12)
		for _, p := range posts {
			assert.True(t, p.IsPublished)
		}
	})

	t.Run("second page", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts?page=2&limit=10", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode(env), 3)
		assert.Equal(t, 2, env.Pagination.Page)
	})

	t.Run("author filter", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts?authorId="+user.UID+"&limit=50", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode(env), 13)
	})

	t.Run("search", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts?search=hidden", "", nil)
		require.Equal(t, http.StatusOK, status)
		posts := decode(env)
		require.Len(t, posts, 1)
		assert.Equal(t, "Hidden Draft", posts[0].Title)
		assert.Equal(t, int64(1), env.Pagination.Total)
	})
}

func TestGetPost(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "writer@example.com", "Writer")
	post := createPost(t, app, token, fiber.Map{"title": "Findable Post", "content": "Body"})

	t.Run("by id", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, "", nil)
		require.Equal(t, http.StatusOK, status)

		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Findable Post", got.Title)
	})

	t.Run("by slug", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts/slug/findable-post", "", nil)
		require.Equal(t, http.StatusOK, status)

		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, post.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodGet, "/api/posts/does-not-exist", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "Post not found", env.Error.Message)
	})

	t.Run("unknown slug", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodGet, "/api/posts/slug/does-not-exist", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestUpdatePost(t *testing.T) {
	_, app := newTestServer(t)
	ownerToken, _ := signupUser(t, app, "owner@example.com", "Owner")
	otherToken, _ := signupUser(t, app, "other@example.com", "Other")
	post := createPost(t, app, ownerToken, fiber.Map{"title": "Original Title", "content": "Body"})

	t.Run("owner updates title and slug follows", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPut, "/api/posts/"+post.ID, ownerToken, fiber.Map{
			"title": "Brand New Title",
		})
		require.Equal(t, http.StatusOK, status)

		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Brand New Title", got.Title)
		assert.Equal(t, "brand-new-title", got.Slug)
		assert.Equal(t, "Body", got.Content)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPut, "/api/posts/"+post.ID, otherToken, fiber.Map{
			"title": "Takeover",
		})
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "Unauthorized to update this post", env.Error.Message)
	})

	t.Run("unknown post", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPut, "/api/posts/missing", ownerToken, fiber.Map{"title": "X"})
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestPublishUnpublish(t *testing.T) {
	_, app := newTestServer(t)
	ownerToken, _ := signupUser(t, app, "owner@example.com", "Owner")
	otherToken, _ := signupUser(t, app, "other@example.com", "Other")
	post := createPost(t, app, ownerToken, fiber.Map{"title": "Lifecycle", "content": "Body"})

	t.Run("publish stamps publishedAt", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/publish", ownerToken, nil)
		require.Equal(t, http.StatusOK, status)

		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.True(t, got.IsPublished)
		require.NotNil(t, got.PublishedAt)
	})

	t.Run("unpublish keeps publishedAt", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/unpublish", ownerToken, nil)
		require.Equal(t, http.StatusOK, status)

		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.False(t, got.IsPublished)
		assert.NotNil(t, got.PublishedAt)
	})

	t.Run("non-owner cannot publish", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/publish", otherToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "Unauthorized to publish this post", env.Error.Message)
	})
}

func TestDeletePost(t *testing.T) {
	_, app := newTestServer(t)
	ownerToken, _ := signupUser(t, app, "owner@example.com", "Owner")
	otherToken, _ := signupUser(t, app, "other@example.com", "Other")
	post := createPost(t, app, ownerToken, fiber.Map{"title": "Doomed", "content": "Body"})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("owner deletes", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID, ownerToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, env.Success)

		status, _ = doJSON(t, app, http.MethodGet, "/api/posts/"+post.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestCounters(t *testing.T) {
	_, app := newTestServer(t)
	token, _ := signupUser(t, app, "writer@example.com", "Writer")
	post := createPost(t, app, token, fiber.Map{"title": "Counted", "content": "Body"})

	decode := func(env envelope) models.Post {
		var got models.Post
		require.NoError(t, json.Unmarshal(env.Data, &got))
		return got
	}

	t.Run("views need no auth", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/view", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(1), decode(env).ViewCount)
	})

	t.Run("likes need auth", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, env := doJSON(t, app, http.MethodPost, "/api/posts/"+post.ID+"/like", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(1), decode(env).LikeCount)
	})

	t.Run("unlike floors at zero", func(t *testing.T) {
		status, env := doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID+"/like", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(0), decode(env).LikeCount)

		status, env = doJSON(t, app, http.MethodDelete, "/api/posts/"+post.ID+"/like", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, int64(0), decode(env).LikeCount)
	})

	t.Run("counter on a missing post", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodPost, "/api/posts/missing/view", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestHealthCheck(t *testing.T) {
	_, app := newTestServer(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
