package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-personal-site/internal/model"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_UpsertGetAndTTL(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	pub := time.Date(2024, 12, 24, 8, 30, 0, 0, time.UTC)
	p := model.MediumPost{
		Slug: "deep-dive-0123456789ab", Title: "Deep Dive", Link: "https://medium.com/p/0123456789ab",
		PublishedAt: &pub, Excerpt: "short", Content: "<p>body</p>", Categories: []string{"go", "sqlite"},
	}
	if err := s.UpsertArticle(ctx, p); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	p.Title = "Deep Dive (updated)"
	if err := s.UpsertArticle(ctx, p); err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if n, err := s.CountArticles(ctx); err != nil || n != 1 {
		t.Fatalf("count = %d err=%v", n, err)
	}

	got, err := s.GetArticle(ctx, p.Slug, time.Hour)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Title != "Deep Dive (updated)" || got.Content != "<p>body</p>" {
		t.Fatalf("unexpected article: %+v", got)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(pub) {
		t.Fatalf("publishedAt = %v", got.PublishedAt)
	}
	if len(got.Categories) != 2 || got.Categories[1] != "sqlite" {
		t.Fatalf("categories = %v", got.Categories)
	}

	now = now.Add(2 * time.Hour)
	if got, err := s.GetArticle(ctx, p.Slug, time.Hour); err != nil || got != nil {
		t.Fatalf("stale entry should be skipped: %v %v", got, err)
	}
	if got, err := s.GetArticle(ctx, p.Slug, 0); err != nil || got == nil {
		t.Fatalf("maxAge<=0 should ignore staleness: %v %v", got, err)
	}
	if got, err := s.GetArticle(ctx, "missing", 0); err != nil || got != nil {
		t.Fatalf("missing slug: %v %v", got, err)
	}
}

func TestSQLite_NoPublishedAtAndEmptySlug(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	if err := s.UpsertArticle(ctx, model.MediumPost{}); err == nil {
		t.Fatalf("expect error for empty slug")
	}
	if err := s.UpsertArticle(ctx, model.MediumPost{Slug: "undated"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetArticle(ctx, "undated", 0)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.PublishedAt != nil || got.Categories == nil {
		t.Fatalf("unexpected article: %+v", got)
	}
}

func TestSQLite_CleanAndReset(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now.AddDate(0, 0, -10) }
	if err := s.UpsertArticle(ctx, model.MediumPost{Slug: "old"}); err != nil {
		t.Fatalf("upsert old: %v", err)
	}
	s.now = func() time.Time { return now }
	if err := s.UpsertArticle(ctx, model.MediumPost{Slug: "new"}); err != nil {
		t.Fatalf("upsert new: %v", err)
	}
	if err := s.CleanOld(ctx, 0); err != nil {
		t.Fatalf("clean 0: %v", err)
	}
	if n, _ := s.CountArticles(ctx); n != 2 {
		t.Fatalf("clean(0) should be a no-op, count=%d", n)
	}
	if err := s.CleanOld(ctx, 7); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if got, _ := s.GetArticle(ctx, "old", 0); got != nil {
		t.Fatalf("old entry should be removed")
	}
	if got, _ := s.GetArticle(ctx, "new", 0); got == nil {
		t.Fatalf("new entry should remain")
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := s.CountArticles(ctx); n != 0 {
		t.Fatalf("count after reset = %d", n)
	}
}
