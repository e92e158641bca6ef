package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/casafunko/api/internal/store"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Top 10 Funkos de 2026!  ", "top-10-funkos-de-2026"},
		{"Batman: El Regreso", "batman-el-regreso"},
		{"ya---con--guiones", "ya-con-guiones"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := store.Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q): got %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestPosts_PublishLifecycle(t *testing.T) {
	testDB.Truncate(t)
	posts := store.NewPosts(testDB.Pool)
	ctx := context.Background()

	draft, err := posts.Create(ctx, store.CreatePostParams{
		Title:   "Guia de Funkos DC",
		Excerpt: "Lo esencial",
		Content: "...",
	})
	if err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	if draft.Slug != "guia-de-funkos-dc" {
		t.Errorf("slug: got %q", draft.Slug)
	}
	if draft.PublishedAt != nil {
		t.Error("draft has a publish date")
	}

	published, err := posts.Create(ctx, store.CreatePostParams{
		Title:   "Novedades de septiembre",
		Content: "...",
		Publish: true,
	})
	if err != nil {
		t.Fatalf("Create published: %v", err)
	}
	if published.PublishedAt == nil {
		t.Error("published post has no publish date")
	}

	// Public listing hides drafts; the admin view includes them.
	visible, err := posts.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(visible) != 1 || visible[0].Slug != published.Slug {
		t.Errorf("public listing: got %+v", visible)
	}
	all, err := posts.List(ctx, true)
	if err != nil {
		t.Fatalf("List with drafts: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin listing: got %d posts, want 2", len(all))
	}

	// Publishing via update is one-way and keeps the original slug.
	err = posts.Update(ctx, draft.ID, store.CreatePostParams{
		Title:   "Guia de Funkos DC (actualizada)",
		Content: "...",
		Publish: true,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := posts.GetBySlug(ctx, "guia-de-funkos-dc")
	if err != nil {
		t.Fatalf("GetBySlug after update: %v", err)
	}
	if got.Title != "Guia de Funkos DC (actualizada)" {
		t.Errorf("title: got %q", got.Title)
	}
	if got.PublishedAt == nil {
		t.Error("post not published by update")
	}
	firstPublish := *got.PublishedAt

	err = posts.Update(ctx, draft.ID, store.CreatePostParams{
		Title:   got.Title,
		Content: "revised",
		Publish: true,
	})
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	got, _ = posts.GetBySlug(ctx, "guia-de-funkos-dc")
	if !got.PublishedAt.Equal(firstPublish) {
		t.Errorf("publish date moved on re-update: %s vs %s", got.PublishedAt, firstPublish)
	}

	if err := posts.Delete(ctx, draft.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := posts.GetBySlug(ctx, "guia-de-funkos-dc"); !errors.Is(err, store.ErrPostNotFound) {
		t.Errorf("after delete: got %v, want ErrPostNotFound", err)
	}
	if err := posts.Update(ctx, uuid.New(), store.CreatePostParams{Title: "x"}); !errors.Is(err, store.ErrPostNotFound) {
		t.Errorf("updating unknown post: got %v, want ErrPostNotFound", err)
	}
}
