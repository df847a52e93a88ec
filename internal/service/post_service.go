package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

// TokenVerifier resolves a bearer token to the calling user's profile.
// AuthService satisfies it; tests substitute stubs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*models.UserProfile, error)
}

// PostService enforces authorship authorization, stamps lifecycle
// timestamps, derives slugs, and shapes listing responses.
type PostService struct {
	posts repository.PostRepository
	auth  TokenVerifier
	cache *cache.Cache
}

// CreatePostInput is the payload for creating a post.
type CreatePostInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featuredImage"`
	IsPublished   bool     `json:"isPublished"`
	IsFeatured    bool     `json:"isFeatured"`
	ReadTime      string   `json:"readTime"`
}

// UpdatePostInput is the payload for a partial post update. Nil fields are
// left unchanged.
type UpdatePostInput struct {
	ID            string
	Title         *string  `json:"title"`
	Content       *string  `json:"content"`
	Excerpt       *string  `json:"excerpt"`
	Category      *string  `json:"category"`
	Tags          []string `json:"tags"`
	FeaturedImage *string  `json:"featuredImage"`
	IsPublished   *bool    `json:"isPublished"`
	IsFeatured    *bool    `json:"isFeatured"`
	ReadTime      *string  `json:"readTime"`
}

// PostPage is one page of posts plus pagination metadata.
type PostPage struct {
	Posts      []*models.Post
	Pagination models.Pagination
}

// NewPostService creates a PostService. The cache may be nil-backed; every
// cache operation degrades to the database.
func NewPostService(posts repository.PostRepository, auth TokenVerifier, c *cache.Cache) *PostService {
	return &PostService{posts: posts, auth: auth, cache: c}
}

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// GenerateSlug derives the URL-safe form of a title: lowercase, strip
// non-alphanumerics, collapse whitespace and hyphen runs to single hyphens,
// trim hyphens at the edges. Slugs are not guaranteed unique.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CreatePost stamps authorship from the verified token, derives the slug,
// and sets publishedAt when the post is born published.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput, token string) (*models.Post, error) {
	user, err := s.auth.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}

	authorName := user.DisplayName
	if authorName == "" {
		authorName = "Anonymous"
	}

	now := time.Now()
	post := &models.Post{
		Title:         in.Title,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Category:      in.Category,
		Tags:          models.StringList(in.Tags),
		FeaturedImage: in.FeaturedImage,
		IsPublished:   in.IsPublished,
		IsFeatured:    in.IsFeatured,
		ReadTime:      in.ReadTime,
		AuthorID:      user.UID,
		AuthorName:    authorName,
		Slug:          GenerateSlug(in.Title),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.IsPublished {
		publishedAt := time.Now()
		post.PublishedAt = &publishedAt
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostMutations.WithLabelValues("create").Inc()
	s.cache.Invalidate(ctx, cache.FrontPageKey)
	return post, nil
}

// GetPostByID fetches a single post, serving hot reads from the cache.
func (s *PostService) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		fetched, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *fetched
		return nil
	})
	if err != nil {
		return nil, notFoundOrErr(err)
	}
	return &post, nil
}

// GetPostBySlug fetches a post by its slug. Slugs are not unique; the
// store returns the first match.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := s.cache.Aside(ctx, cache.SlugKey(slug), &post, cache.PostTTL, func() error {
		fetched, err := s.posts.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		post = *fetched
		return nil
	})
	if err != nil {
		return nil, notFoundOrErr(err)
	}
	return &post, nil
}

// GetPosts returns one page of posts with pagination metadata. The
// unfiltered published front page is cached briefly.
func (s *PostService) GetPosts(ctx context.Context, filters models.PostFilters) (*PostPage, error) {
	if isFrontPage(filters) {
		var page PostPage
		err := s.cache.Aside(ctx, cache.FrontPageKey, &page, cache.FrontPageTTL, func() error {
			fetched, err := s.listPage(ctx, filters)
			if err != nil {
				return err
			}
			page = *fetched
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &page, nil
	}
	return s.listPage(ctx, filters)
}

func (s *PostService) listPage(ctx context.Context, filters models.PostFilters) (*PostPage, error) {
	posts, err := s.posts.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	total, err := s.posts.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	limit := filters.LimitOrDefault()
	return &PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Page:       filters.PageOrDefault(),
			Limit:      limit,
			Total:      total,
			TotalPages: (total + int64(limit) - 1) / int64(limit),
		},
	}, nil
}

// isFrontPage reports whether the filters describe the default dashboard
// query: first page of published posts, default sort, nothing else.
func isFrontPage(f models.PostFilters) bool {
	return f.IsPublished != nil && *f.IsPublished &&
		f.IsFeatured == nil &&
		f.Category == "" && f.AuthorID == "" && f.Search == "" &&
		len(f.Tags) == 0 &&
		f.PageOrDefault() == 1 && f.LimitOrDefault() == 10 &&
		(f.SortBy == "" || f.SortBy == models.SortByCreatedAt) &&
		(f.SortOrder == "" || strings.EqualFold(f.SortOrder, "desc"))
}

// UpdatePost applies a partial update after verifying ownership. The slug
// follows the current title; publishedAt is set only on the first
// false-to-true publish transition.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput, token string) (*models.Post, error) {
	post, err := s.authorizeMutation(ctx, in.ID, token, "update")
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		post.Title = *in.Title
		post.Slug = GenerateSlug(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if in.Tags != nil {
		post.Tags = models.StringList(in.Tags)
	}
	if in.FeaturedImage != nil {
		post.FeaturedImage = *in.FeaturedImage
	}
	if in.ReadTime != nil {
		post.ReadTime = *in.ReadTime
	}
	if in.IsFeatured != nil {
		post.IsFeatured = *in.IsFeatured
	}
	if in.IsPublished != nil {
		if *in.IsPublished && !post.IsPublished && post.PublishedAt == nil {
			publishedAt := time.Now()
			post.PublishedAt = &publishedAt
		}
		post.IsPublished = *in.IsPublished
	}
	post.UpdatedAt = time.Now()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostMutations.WithLabelValues("update").Inc()
	s.invalidatePost(ctx, post)
	return post, nil
}

// DeletePost removes a post after verifying ownership.
func (s *PostService) DeletePost(ctx context.Context, id, token string) error {
	post, err := s.authorizeMutation(ctx, id, token, "delete")
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	middleware.PostMutations.WithLabelValues("delete").Inc()
	s.invalidatePost(ctx, post)
	return nil
}

// PublishPost marks the post published. publishedAt is stamped only the
// first time; re-publishing does not refresh it.
func (s *PostService) PublishPost(ctx context.Context, id, token string) (*models.Post, error) {
	post, err := s.authorizeMutation(ctx, id, token, "publish")
	if err != nil {
		return nil, err
	}

	post.IsPublished = true
	if post.PublishedAt == nil {
		publishedAt := time.Now()
		post.PublishedAt = &publishedAt
	}
	post.UpdatedAt = time.Now()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostMutations.WithLabelValues("publish").Inc()
	s.invalidatePost(ctx, post)
	return post, nil
}

// UnpublishPost clears the published flag. publishedAt is kept as the
// record of the first publication.
func (s *PostService) UnpublishPost(ctx context.Context, id, token string) (*models.Post, error) {
	post, err := s.authorizeMutation(ctx, id, token, "unpublish")
	if err != nil {
		return nil, err
	}

	post.IsPublished = false
	post.UpdatedAt = time.Now()

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}

	middleware.PostMutations.WithLabelValues("unpublish").Inc()
	s.invalidatePost(ctx, post)
	return post, nil
}

// IncrementViewCount bumps the view counter with a single atomic update.
// It is unauthenticated by design: every reader counts.
func (s *PostService) IncrementViewCount(ctx context.Context, id string) (*models.Post, error) {
	if err := s.posts.IncrementViewCount(ctx, id); err != nil {
		return nil, notFoundOrErr(err)
	}
	return s.refreshPost(ctx, id)
}

// LikePost bumps the like counter for the authenticated caller.
func (s *PostService) LikePost(ctx context.Context, id, token string) (*models.Post, error) {
	if _, err := s.auth.VerifyToken(ctx, token); err != nil {
		return nil, err
	}
	if err := s.posts.IncrementLikeCount(ctx, id); err != nil {
		return nil, notFoundOrErr(err)
	}
	return s.refreshPost(ctx, id)
}

// UnlikePost decrements the like counter, flooring at zero.
func (s *PostService) UnlikePost(ctx context.Context, id, token string) (*models.Post, error) {
	if _, err := s.auth.VerifyToken(ctx, token); err != nil {
		return nil, err
	}
	if err := s.posts.DecrementLikeCount(ctx, id); err != nil {
		return nil, notFoundOrErr(err)
	}
	return s.refreshPost(ctx, id)
}

// authorizeMutation verifies the token, loads the post, and requires the
// caller to be its author. It never mutates the post.
func (s *PostService) authorizeMutation(ctx context.Context, id, token, verb string) (*models.Post, error) {
	user, err := s.auth.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrErr(err)
	}

	if post.AuthorID != user.UID {
		return nil, models.NewForbiddenError("Unauthorized to " + verb + " this post")
	}
	return post, nil
}

// refreshPost invalidates the cache entries for a post and reloads it.
func (s *PostService) refreshPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrErr(err)
	}
	s.invalidatePost(ctx, post)
	return post, nil
}

func (s *PostService) invalidatePost(ctx context.Context, post *models.Post) {
	s.cache.Invalidate(ctx, cache.PostKey(post.ID), cache.SlugKey(post.Slug), cache.FrontPageKey)
}

func notFoundOrErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Post not found")
	}
	return err
}
