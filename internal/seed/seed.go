// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/identity"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumAuthors  int
	NumPosts    int
	MaxDays     int
	ShouldClean bool
}

var categories = []string{
	"Technology", "Programming", "Design", "Travel", "Food",
	"Science", "Music", "Books", "Productivity", "Opinion",
}

var tagPool = []string{
	"golang", "webdev", "tutorial", "career", "cloud", "databases",
	"frontend", "backend", "devops", "architecture", "testing",
	"opensource", "security", "performance", "beginners",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Factory{db: db, opts: opts, rand: r}
}

// Run clears existing data when requested, then creates authors and posts.
func (f *Factory) Run() error {
	log.Printf("Seeding %d authors and %d posts...", f.opts.NumAuthors, f.opts.NumPosts)

	if f.opts.ShouldClean {
		if err := f.ClearAll(); err != nil {
			log.Printf("Warning: could not clear existing data: %v", err)
		}
	}

	authors, err := f.createAuthors(f.opts.NumAuthors)
	if err != nil {
		return fmt.Errorf("failed to create authors: %w", err)
	}
	log.Printf("Created %d authors", len(authors))

	posts, err := f.createPosts(authors, f.opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("Created %d posts", len(posts))

	return nil
}

// ClearAll removes all seeded rows. Order matters for foreign keys.
func (f *Factory) ClearAll() error {
	for _, table := range []string{"posts", "users", "credentials"} {
		if err := f.db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateAuthor constructs and persists a credential plus matching profile.
// All seeded accounts share the password "password123". Optional override
// functions may modify the generated profile before saving.
func (f *Factory) CreateAuthor(overrides ...func(*models.UserProfile)) (*models.UserProfile, error) {
	uid := uuid.NewString()
	name := gofakeit.Name()
	email := strings.ToLower(fmt.Sprintf("%s%d@example.com",
		strings.ReplaceAll(name, " ", "."), gofakeit.Number(10, 999)))

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	cred := &identity.Credential{
		UID:           uid,
		Email:         email,
		PasswordHash:  string(hash),
		DisplayName:   name,
		EmailVerified: true,
	}
	if err := f.db.Create(cred).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	profile := &models.UserProfile{
		UID:           uid,
		Email:         email,
		DisplayName:   name,
		EmailVerified: true,
		LastLoginAt:   now.Add(-time.Duration(f.rand.Intn(72)) * time.Hour),
	}
	for _, override := range overrides {
		override(profile)
	}
	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// CreatePost constructs and persists a sample post for the given author.
// Roughly four in five posts are published, one in five is featured.
func (f *Factory) CreatePost(author *models.UserProfile, overrides ...func(*models.Post)) (*models.Post, error) {
	title := strings.TrimSuffix(gofakeit.Sentence(f.rand.Intn(5)+4), ".")
	content := gofakeit.Paragraph(f.rand.Intn(4)+2, 3, 8, "\n\n")
	excerpt := gofakeit.Sentence(12)

	tags := f.pickTags(f.rand.Intn(4) + 1)

	post := &models.Post{
		Title:         title,
		Content:       content,
		Excerpt:       excerpt,
		Category:      categories[f.rand.Intn(len(categories))],
		Tags:          tags,
		FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", gofakeit.UUID()),
		IsPublished:   f.rand.Float32() < 0.8,
		IsFeatured:    f.rand.Float32() < 0.2,
		ReadTime:      fmt.Sprintf("%d min read", f.rand.Intn(14)+1),
		AuthorID:      author.UID,
		AuthorName:    author.DisplayName,
		Slug:          service.GenerateSlug(title),
		ViewCount:     int64(f.rand.Intn(5000)),
		LikeCount:     int64(f.rand.Intn(400)),
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	createdAt := time.Now().
		Add(-time.Duration(f.rand.Intn(maxDays)) * 24 * time.Hour).
		Add(-time.Duration(f.rand.Intn(24)) * time.Hour).
		Add(-time.Duration(f.rand.Intn(60)) * time.Minute)
	post.CreatedAt = createdAt
	post.UpdatedAt = createdAt
	if post.IsPublished {
		publishedAt := createdAt.Add(time.Duration(f.rand.Intn(120)) * time.Minute)
		post.PublishedAt = &publishedAt
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) pickTags(n int) models.StringList {
	picked := make(models.StringList, 0, n)
	seen := map[string]bool{}
	for len(picked) < n {
		tag := tagPool[f.rand.Intn(len(tagPool))]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		picked = append(picked, tag)
	}
	return picked
}

func (f *Factory) createAuthors(count int) ([]*models.UserProfile, error) {
	authors := make([]*models.UserProfile, 0, count)

	// a well-known account for manual testing
	known, err := f.CreateAuthor(func(p *models.UserProfile) {
		p.Email = "writer@example.com"
		p.DisplayName = "Demo Writer"
	})
	if err == nil {
		if err := f.db.Model(&identity.Credential{}).Where("uid = ?", known.UID).
			Updates(map[string]any{"email": known.Email, "display_name": known.DisplayName}).Error; err != nil {
			return nil, err
		}
		authors = append(authors, known)
	}

	for i := len(authors); i < count; i++ {
		author, err := f.CreateAuthor()
		if err != nil {
			log.Printf("Failed to create author: %v", err)
			continue
		}
		authors = append(authors, author)
	}
	return authors, nil
}

func (f *Factory) createPosts(authors []*models.UserProfile, count int) ([]*models.Post, error) {
	if len(authors) == 0 {
		return nil, fmt.Errorf("no authors to attribute posts to")
	}
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := authors[f.rand.Intn(len(authors))]
		post, err := f.CreatePost(author)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}
	return posts, nil
}
