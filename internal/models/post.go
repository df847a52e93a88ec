package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringList stores a list of strings as a JSON array in a single text
// column, which keeps tag queries portable between Postgres and SQLite.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// Post is a content entity with a publish lifecycle, owned by one author.
type Post struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Content       string     `gorm:"not null" json:"content"`
	Excerpt       string     `json:"excerpt"`
	Category      string     `gorm:"index" json:"category"`
	Tags          StringList `gorm:"type:text" json:"tags"`
	FeaturedImage string     `json:"featuredImage"`
	IsPublished   bool       `gorm:"index" json:"isPublished"`
	IsFeatured    bool       `gorm:"index" json:"isFeatured"`
	ReadTime      string     `json:"readTime"`
	AuthorID      string     `gorm:"index;not null;size:36" json:"authorId"`
	AuthorName    string     `json:"authorName"`
	Slug          string     `gorm:"index" json:"slug"`
	ViewCount     int64      `json:"viewCount"`
	LikeCount     int64      `json:"likeCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}

// BeforeCreate assigns a UUID when the store has not been given one.
func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Sort fields accepted by PostFilters.SortBy.
const (
	SortByCreatedAt   = "createdAt"
	SortByUpdatedAt   = "updatedAt"
	SortByPublishedAt = "publishedAt"
	SortByViewCount   = "viewCount"
	SortByLikeCount   = "likeCount"
)

// PostFilters describes the query surface of GET /api/posts. Boolean
// filters are pointers so "not set" and "false" stay distinguishable.
type PostFilters struct {
	Category    string
	Tags        []string
	IsPublished *bool
	IsFeatured  *bool
	AuthorID    string
	Search      string
	Page        int
	Limit       int
	SortBy      string
	SortOrder   string
}

// PageOrDefault returns the 1-based page, defaulting to 1.
func (f PostFilters) PageOrDefault() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

// LimitOrDefault returns the page size, defaulting to 10.
func (f PostFilters) LimitOrDefault() int {
	if f.Limit < 1 {
		return 10
	}
	return f.Limit
}

// Pagination is the metadata block returned alongside post listings.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}
