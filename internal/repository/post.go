// Package repository contains the data access layer.
package repository

import (
	"context"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Counter
// mutations are single atomic updates; there is deliberately no
// read-modify-write path for counters.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filters models.PostFilters) ([]*models.Post, error)
	Count(ctx context.Context, filters models.PostFilters) (int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	IncrementViewCount(ctx context.Context, id string) error
	IncrementLikeCount(ctx context.Context, id string) error
	DecrementLikeCount(ctx context.Context, id string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// sortColumns whitelists the sortable fields and maps them to columns.
var sortColumns = map[string]string{
	models.SortByCreatedAt:   "created_at",
	models.SortByUpdatedAt:   "updated_at",
	models.SortByPublishedAt: "published_at",
	models.SortByViewCount:   "view_count",
	models.SortByLikeCount:   "like_count",
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// applyFilters narrows the query to the store-level filter predicate.
// Free-text search is not part of it; that runs in memory afterwards.
func (r *postRepository) applyFilters(tx *gorm.DB, f models.PostFilters) *gorm.DB {
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.IsPublished != nil {
		tx = tx.Where("is_published = ?", *f.IsPublished)
	}
	if f.IsFeatured != nil {
		tx = tx.Where("is_featured = ?", *f.IsFeatured)
	}
	if f.AuthorID != "" {
		tx = tx.Where("author_id = ?", f.AuthorID)
	}
	if len(f.Tags) > 0 {
		// Tags are stored as a JSON array, so element membership is a
		// quoted-substring match. Only one tags condition is supported;
		// multiple requested tags are OR'd into a match-any.
		cond := r.db.Where("tags LIKE ?", tagPattern(f.Tags[0]))
		for _, tag := range f.Tags[1:] {
			cond = cond.Or("tags LIKE ?", tagPattern(tag))
		}
		tx = tx.Where(cond)
	}
	return tx
}

func tagPattern(tag string) string {
	return `%"` + tag + `"%`
}

func orderClause(f models.PostFilters) string {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

// matchesSearch reports whether the post contains the lowercased term in
// its title, content, or excerpt.
func matchesSearch(post *models.Post, term string) bool {
	return strings.Contains(strings.ToLower(post.Title), term) ||
		strings.Contains(strings.ToLower(post.Content), term) ||
		strings.Contains(strings.ToLower(post.Excerpt), term)
}

// List returns one page of posts matching the filters. Without a search
// term, pagination happens in the store query. With one, the full filtered
// set is scanned and the text match applied before pagination, so the page
// slices line up with Count over the same predicate. This is an O(n) scan
// by contract; a search index is out of scope here.
func (r *postRepository) List(ctx context.Context, f models.PostFilters) ([]*models.Post, error) {
	tx := r.applyFilters(r.db.WithContext(ctx).Model(&models.Post{}), f).Order(orderClause(f))

	page := f.PageOrDefault()
	limit := f.LimitOrDefault()

	if f.Search == "" {
		var posts []*models.Post
		err := tx.Offset((page - 1) * limit).Limit(limit).Find(&posts).Error
		return posts, err
	}

	var all []*models.Post
	if err := tx.Find(&all).Error; err != nil {
		return nil, err
	}

	term := strings.ToLower(f.Search)
	matched := make([]*models.Post, 0, len(all))
	for _, post := range all {
		if matchesSearch(post, term) {
			matched = append(matched, post)
		}
	}

	start := (page - 1) * limit
	if start >= len(matched) {
		return []*models.Post{}, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// Count returns the number of posts matching the same predicate as List,
// ignoring pagination.
func (r *postRepository) Count(ctx context.Context, f models.PostFilters) (int64, error) {
	tx := r.applyFilters(r.db.WithContext(ctx).Model(&models.Post{}), f)

	if f.Search == "" {
		var count int64
		err := tx.Count(&count).Error
		return count, err
	}

	var all []*models.Post
	if err := tx.Find(&all).Error; err != nil {
		return 0, err
	}

	term := strings.ToLower(f.Search)
	var count int64
	for _, post := range all {
		if matchesSearch(post, term) {
			count++
		}
	}
	return count, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error
}

// incrementColumn applies an atomic counter update and reports not-found
// via gorm.ErrRecordNotFound when the post does not exist.
func (r *postRepository) incrementColumn(ctx context.Context, id, column string, expr any) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, expr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id string) error {
	return r.incrementColumn(ctx, id, "view_count", gorm.Expr("view_count + 1"))
}

func (r *postRepository) IncrementLikeCount(ctx context.Context, id string) error {
	return r.incrementColumn(ctx, id, "like_count", gorm.Expr("like_count + 1"))
}

func (r *postRepository) DecrementLikeCount(ctx context.Context, id string) error {
	// CASE keeps the floor-at-zero portable between Postgres and SQLite.
	return r.incrementColumn(ctx, id, "like_count",
		gorm.Expr("CASE WHEN like_count > 0 THEN like_count - 1 ELSE 0 END"))
}
