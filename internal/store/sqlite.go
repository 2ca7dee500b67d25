// 包 store 提供 Medium 文章缓存（SQLite），保存抓取接口得到的单篇文章，
// 避免对同一篇文章反复请求非公开接口。
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-personal-site/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite 打开数据库并执行自动迁移。
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空缓存表。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM medium_articles`); err != nil {
		return fmt.Errorf("delete medium_articles: %w", err)
	}
	return nil
}

func (s *SQLite) migrate() error {
	const q = `CREATE TABLE IF NOT EXISTS medium_articles (
            slug TEXT PRIMARY KEY,
            title TEXT,
            link TEXT,
            published_at TIMESTAMP,
            excerpt TEXT,
            content TEXT,
            image TEXT,
            categories TEXT,
            fetched_at TIMESTAMP NOT NULL
        );`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("exec migrate: %w", err)
	}
	return nil
}

// UpsertArticle 插入或覆盖文章（slug 唯一），并刷新 fetched_at。
func (s *SQLite) UpsertArticle(ctx context.Context, p model.MediumPost) error {
	if p.Slug == "" {
		return errors.New("article.slug required")
	}
	cats, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	var published sql.NullTime
	if p.PublishedAt != nil {
		published = sql.NullTime{Time: p.PublishedAt.UTC(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO medium_articles(slug, title, link, published_at, excerpt, content, image, categories, fetched_at)
        VALUES(?,?,?,?,?,?,?,?,?)
        ON CONFLICT(slug) DO UPDATE SET title=excluded.title, link=excluded.link, published_at=excluded.published_at,
            excerpt=excluded.excerpt, content=excluded.content, image=excluded.image, categories=excluded.categories,
            fetched_at=excluded.fetched_at`,
		p.Slug, p.Title, p.Link, published, p.Excerpt, p.Content, p.Image, string(cats), s.now().UTC())
	if err != nil {
		return fmt.Errorf("upsert article %s: %w", p.Slug, err)
	}
	return nil
}

// GetArticle 返回缓存文章；不存在或早于 maxAge 时返回 nil（maxAge<=0 不判断过期）。
func (s *SQLite) GetArticle(ctx context.Context, slug string, maxAge time.Duration) (*model.MediumPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT slug, title, link, published_at, excerpt, content, image, categories, fetched_at
        FROM medium_articles WHERE slug = ?`, slug)
	var (
		p         model.MediumPost
		published sql.NullTime
		cats      sql.NullString
		fetched   time.Time
	)
	err := row.Scan(&p.Slug, &p.Title, &p.Link, &published, &p.Excerpt, &p.Content, &p.Image, &cats, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article %s: %w", slug, err)
	}
	if maxAge > 0 && s.now().Sub(fetched) > maxAge {
		return nil, nil
	}
	if published.Valid {
		t := published.Time.UTC()
		p.PublishedAt = &t
	}
	p.Categories = []string{}
	if cats.Valid && cats.String != "" {
		if err := json.Unmarshal([]byte(cats.String), &p.Categories); err != nil {
			return nil, fmt.Errorf("decode categories %s: %w", slug, err)
		}
		if p.Categories == nil {
			p.Categories = []string{}
		}
	}
	return &p, nil
}

// CountArticles 返回缓存条目数。
func (s *SQLite) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM medium_articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// CleanOld 删除 fetched_at 早于 days 天的条目。
func (s *SQLite) CleanOld(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM medium_articles WHERE fetched_at < ?`, cutoff); err != nil {
		return fmt.Errorf("clean old articles: %w", err)
	}
	return nil
}
