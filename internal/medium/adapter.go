// 包 medium 是 Medium 订阅的只读镜像：
// - ListPosts：按优先级依次尝试候选订阅地址，返回第一个非空解析结果
// - GetPostBySlug：先查订阅窗口，再查文章缓存，最后交给 Scraper 抓取单篇文章
// 所有外部失败只记录警告，调用方总是得到尽力而为的结果（可能为空）。
package medium

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmcdole/gofeed"

	"go-personal-site/internal/fetch"
	"go-personal-site/internal/logx"
	"go-personal-site/internal/model"
)

// Cache 为已抓取文章的缓存（见 internal/store）。
type Cache interface {
	GetArticle(ctx context.Context, slug string, maxAge time.Duration) (*model.MediumPost, error)
	UpsertArticle(ctx context.Context, p model.MediumPost) error
}

// Adapter 为单个 Medium 账号的订阅适配器。
type Adapter struct {
	cfg      Config
	cl       *fetch.Client
	scraper  Scraper
	cache    Cache
	cacheTTL time.Duration
}

// Option 配置 Adapter 的可选依赖。
type Option func(*Adapter)

// WithScraper 替换默认的 JSONScraper；传 nil 关闭抓取回退。
func WithScraper(s Scraper) Option { return func(a *Adapter) { a.scraper = s } }

// WithCache 启用文章缓存，ttl<=0 表示不过期。
func WithCache(c Cache, ttl time.Duration) Option {
	return func(a *Adapter) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// New 创建 Adapter；默认使用 JSONScraper 作为单篇回退。
func New(cfg Config, cl *fetch.Client, opts ...Option) *Adapter {
	cfg = cfg.withDefaults()
	a := &Adapter{cfg: cfg, cl: cl, scraper: NewJSONScraper(cfg, cl)}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Config 返回已填充默认值的配置。
func (a *Adapter) Config() Config { return a.cfg }

// ListPosts 返回最多 limit 篇文章（limit<=0 使用默认值），失败时返回空切片而非错误。
func (a *Adapter) ListPosts(ctx context.Context, limit int, includeContent bool) []model.MediumPost {
	if limit <= 0 {
		limit = a.cfg.DefaultLimit
	}
	for _, u := range a.cfg.FeedCandidates() {
		items, err := a.fetchFeed(ctx, u)
		if err != nil {
			logx.Warnf("Medium 订阅获取失败：%s 错误=%v", u, err)
			continue
		}
		if len(items) == 0 {
			logx.Warnf("Medium 订阅为空：%s", u)
			continue
		}
		n := min(limit, len(items))
		out := make([]model.MediumPost, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, normalizeItem(items[i], i, includeContent, a.cfg.ProfileBase))
		}
		logx.Debugf("Medium 订阅解析完成：%s 条目=%d", u, len(out))
		return out
	}
	return []model.MediumPost{}
}

// GetPostBySlug 查找单篇文章，找不到时返回 nil。
func (a *Adapter) GetPostBySlug(ctx context.Context, slug string) *model.MediumPost {
	if slug == "" {
		return nil
	}
	for _, p := range a.ListPosts(ctx, a.cfg.ContentWindow, true) {
		if p.Slug == slug {
			p := p
			return &p
		}
	}
	if a.cache != nil {
		p, err := a.cache.GetArticle(ctx, slug, a.cacheTTL)
		if err != nil {
			logx.Warnf("读取文章缓存失败：%s 错误=%v", slug, err)
		} else if p != nil {
			return p
		}
	}
	if a.scraper == nil {
		return nil
	}
	p, err := a.scraper.Scrape(ctx, slug)
	if err != nil {
		logx.Warnf("Medium 文章抓取失败：%s 错误=%v", slug, err)
		return nil
	}
	if a.cache != nil {
		if err := a.cache.UpsertArticle(ctx, *p); err != nil {
			logx.Warnf("写入文章缓存失败：%s 错误=%v", slug, err)
		}
	}
	return p
}

// fetchFeed 在超时限制内抓取并解析单个订阅地址。
func (a *Adapter) fetchFeed(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	resp, err := a.cl.Get(reqCtx, feedURL, map[string]string{
		"Accept": "application/rss+xml, application/xml",
	})
	if err != nil {
		return nil, fmt.Errorf("GET feed: %w", err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed.Items, nil
}
