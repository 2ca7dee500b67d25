package aggregate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-personal-site/internal/aggregate"
	"go-personal-site/internal/blog"
	"go-personal-site/internal/model"
)

type fakePosts struct {
	posts []model.Post
	err   error
	opts  blog.ListOptions
}

func (f *fakePosts) ListPosts(_ context.Context, opts blog.ListOptions) ([]model.Post, error) {
	f.opts = opts
	return f.posts, f.err
}

type fakeMedium struct {
	posts []model.MediumPost
	limit int
}

func (f *fakeMedium) ListPosts(_ context.Context, limit int, _ bool) []model.MediumPost {
	f.limit = limit
	return f.posts
}

func day(d int) time.Time { return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC) }

func TestRunner_MergesByDate(t *testing.T) {
	p1, p3 := day(1), day(3)
	posts := &fakePosts{posts: []model.Post{
		{Slug: "local-old", Title: "Local old", Status: model.StatusPublished, PublishedAt: &p1},
		{Slug: "local-new", Title: "Local new", Status: model.StatusPublished, PublishedAt: &p3},
	}}
	m2 := day(2)
	medium := &fakeMedium{posts: []model.MediumPost{
		{Slug: "remote", Title: "Remote", Link: "https://medium.com/p/1", PublishedAt: &m2, Categories: []string{"go"}},
		{Slug: "", Title: "no slug"},
	}}
	r := aggregate.New(posts, medium, 4)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if posts.opts != (blog.ListOptions{}) {
		t.Fatalf("only published posts should be requested, got %+v", posts.opts)
	}
	if medium.limit != 4 {
		t.Fatalf("medium limit = %d", medium.limit)
	}
	if len(res.Timeline) != 3 {
		t.Fatalf("timeline size = %d", len(res.Timeline))
	}
	order := []string{"local-new", "remote", "local-old"}
	for i, e := range res.Timeline {
		if e.Slug != order[i] {
			t.Fatalf("timeline[%d] = %s, want %s", i, e.Slug, order[i])
		}
	}
	if res.Timeline[1].Source != model.SourceMedium || res.Timeline[1].Link == "" {
		t.Fatalf("medium entry: %+v", res.Timeline[1])
	}

	tl, err := r.Timeline(context.Background(), 2)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(tl) != 2 {
		t.Fatalf("limited timeline size = %d", len(tl))
	}
}

func TestRunner_PostErrorAndNilMedium(t *testing.T) {
	r := aggregate.New(&fakePosts{err: errors.New("boom")}, nil, 0)
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatalf("expect post store error")
	}
	r = aggregate.New(&fakePosts{}, nil, 0)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Medium == nil || len(res.Timeline) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSimpleBuffer_DedupAndOrder(t *testing.T) {
	b := aggregate.NewSimpleBuffer()
	b.Add(model.TimelineEntry{Source: model.SourceBlog, Slug: "a", Title: "B", Date: day(1)})
	b.Add(model.TimelineEntry{Source: model.SourceBlog, Slug: "a", Title: "A", Date: day(1)})
	b.Add(model.TimelineEntry{Source: model.SourceMedium, Slug: "a", Title: "C", Date: day(1)})
	b.Add(model.TimelineEntry{Source: model.SourceMedium, Slug: "z", Title: "Z", Date: day(5)})
	got := b.Snapshot()
	if len(got) != 3 {
		t.Fatalf("size = %d", len(got))
	}
	if got[0].Slug != "z" || got[1].Title != "A" || got[2].Title != "C" {
		t.Fatalf("order = %+v", got)
	}
}
