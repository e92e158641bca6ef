package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPostNotFound is returned when a blog post does not exist.
var ErrPostNotFound = errors.New("post not found")

// Post is a blog entry on the storefront.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	ImageURL    string     `json:"image_url"`
	Category    string     `json:"category"`
	ReadingTime string     `json:"reading_time"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Posts is the blog repository.
type Posts struct {
	pool *pgxpool.Pool
}

// NewPosts creates the posts repository.
func NewPosts(pool *pgxpool.Pool) *Posts {
	return &Posts{pool: pool}
}

const postColumns = `id, title, slug, excerpt, content, image_url, category,
	reading_time, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.ImageURL,
		&p.Category, &p.ReadingTime, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// List returns published posts newest-first. includeDrafts also returns
// unpublished posts (admin view).
func (r *Posts) List(ctx context.Context, includeDrafts bool) ([]Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE $1 OR published_at IS NOT NULL
		ORDER BY created_at DESC`,
		includeDrafts,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetBySlug returns a single post by slug.
func (r *Posts) GetBySlug(ctx context.Context, slug string) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrPostNotFound
		}
		return Post{}, fmt.Errorf("getting post %q: %w", slug, err)
	}
	return p, nil
}

// CreatePostParams holds the fields for a new blog post.
type CreatePostParams struct {
	Title       string
	Excerpt     string
	Content     string
	ImageURL    string
	Category    string
	ReadingTime string
	Publish     bool
}

// Create inserts a new blog post, deriving the slug from the title.
func (r *Posts) Create(ctx context.Context, params CreatePostParams) (Post, error) {
	now := time.Now().UTC()
	p := Post{
		ID:          uuid.New(),
		Title:       params.Title,
		Slug:        Slugify(params.Title),
		Excerpt:     params.Excerpt,
		Content:     params.Content,
		ImageURL:    params.ImageURL,
		Category:    params.Category,
		ReadingTime: params.ReadingTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if params.Publish {
		p.PublishedAt = &now
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, title, slug, excerpt, content, image_url,
			category, reading_time, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.ImageURL,
		p.Category, p.ReadingTime, p.PublishedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return Post{}, fmt.Errorf("inserting post %q: %w", params.Title, err)
	}
	return p, nil
}

// Update overwrites the mutable fields of a post. The slug is preserved so
// published URLs stay stable.
func (r *Posts) Update(ctx context.Context, id uuid.UUID, params CreatePostParams) error {
	var publishedAt *time.Time
	if params.Publish {
		now := time.Now().UTC()
		publishedAt = &now
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts
		SET title = $1, excerpt = $2, content = $3, image_url = $4,
		    category = $5, reading_time = $6,
		    published_at = COALESCE(published_at, $7),
		    updated_at = $8
		WHERE id = $9`,
		params.Title, params.Excerpt, params.Content, params.ImageURL,
		params.Category, params.ReadingTime, publishedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Delete removes a blog post.
func (r *Posts) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
)

// Slugify converts a title to a URL slug: lowercase, non-alphanumerics
// stripped, whitespace runs collapsed to single hyphens.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
