package export_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-personal-site/internal/aggregate"
	"go-personal-site/internal/blog"
	"go-personal-site/internal/export"
	"go-personal-site/internal/model"
)

type staticMedium []model.MediumPost

func (s staticMedium) ListPosts(context.Context, int, bool) []model.MediumPost { return s }

func TestExport_ToJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := blog.New(blog.Options{DataDir: filepath.Join(dir, "data")})
	if err != nil {
		t.Fatalf("blog store: %v", err)
	}
	pub := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	run := aggregate.New(store, staticMedium{{Slug: "m1", Title: "M1", PublishedAt: &pub, Categories: []string{}}}, 6)

	out := filepath.Join(dir, "public", "data.json")
	if err := export.ToJSON(context.Background(), run, out); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got model.Export
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Stats.PostsTotal != 1 || got.Stats.MediumTotal != 1 {
		t.Fatalf("stats = %+v", got.Stats)
	}
	if len(got.Timeline) != 2 || got.Timeline[0].Slug != "m1" {
		t.Fatalf("timeline = %+v", got.Timeline)
	}
}

func TestExport_TimelineCap(t *testing.T) {
	res := &aggregate.Result{Posts: []model.Post{}, Medium: []model.MediumPost{}}
	for i := 0; i < 200; i++ {
		res.Timeline = append(res.Timeline, model.TimelineEntry{Slug: "x", Tags: []string{}})
	}
	out := filepath.Join(t.TempDir(), "data.json")
	if err := export.ToJSONData(res, out); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got model.Export
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Timeline) != 150 {
		t.Fatalf("timeline size = %d, want 150", len(got.Timeline))
	}
}
