// 包 aggregate 合并本站已发布文章与 Medium 文章，生成博客首页使用的时间线。
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-personal-site/internal/blog"
	"go-personal-site/internal/model"
)

// PostLister 由 blog.Store 实现。
type PostLister interface {
	ListPosts(ctx context.Context, opts blog.ListOptions) ([]model.Post, error)
}

// MediumLister 由 medium.Adapter 实现。
type MediumLister interface {
	ListPosts(ctx context.Context, limit int, includeContent bool) []model.MediumPost
}

// Runner 持有两个数据源，每次 Run 重新读取。
type Runner struct {
	posts       PostLister
	medium      MediumLister
	mediumLimit int
}

// New 创建 Runner；medium 可为 nil（仅本站文章）。
func New(posts PostLister, medium MediumLister, mediumLimit int) *Runner {
	return &Runner{posts: posts, medium: medium, mediumLimit: mediumLimit}
}

// Result 为一次聚合的原始数据与合并后的时间线。
type Result struct {
	Posts    []model.Post
	Medium   []model.MediumPost
	Timeline []model.TimelineEntry
}

// Run 并发读取本站文章与 Medium 订阅；只包含已发布文章。
// Medium 失败不会导致错误，本站存储读取失败才返回错误。
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	var (
		wg      sync.WaitGroup
		posts   []model.Post
		postErr error
		medium  []model.MediumPost
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		posts, postErr = r.posts.ListPosts(ctx, blog.ListOptions{})
	}()
	if r.medium != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			medium = r.medium.ListPosts(ctx, r.mediumLimit, false)
		}()
	}
	wg.Wait()
	if postErr != nil {
		return nil, fmt.Errorf("list posts: %w", postErr)
	}
	if medium == nil {
		medium = []model.MediumPost{}
	}

	buf := NewSimpleBuffer()
	for _, p := range posts {
		buf.Add(model.TimelineEntry{
			Source:  model.SourceBlog,
			Slug:    p.Slug,
			Title:   p.Title,
			Excerpt: p.Excerpt,
			Tags:    p.Tags,
			Date:    p.EffectiveDate(),
		})
	}
	for _, m := range medium {
		var date time.Time
		if m.PublishedAt != nil {
			date = *m.PublishedAt
		}
		buf.Add(model.TimelineEntry{
			Source:  model.SourceMedium,
			Slug:    m.Slug,
			Title:   m.Title,
			Excerpt: m.Excerpt,
			Link:    m.Link,
			Image:   m.Image,
			Tags:    m.Categories,
			Date:    date,
		})
	}
	return &Result{Posts: posts, Medium: medium, Timeline: buf.Snapshot()}, nil
}

// Timeline 返回最多 limit 条合并条目（limit<=0 不限制）。
func (r *Runner) Timeline(ctx context.Context, limit int) ([]model.TimelineEntry, error) {
	res, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	tl := res.Timeline
	if limit > 0 && len(tl) > limit {
		tl = tl[:limit]
	}
	return tl, nil
}
