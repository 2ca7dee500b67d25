// 包 model 定义站点的数据模型（博客文章/输入/Medium 文章/时间线/导出结构）。
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status 为博客文章的发布状态。
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ParseStatus 识别三种合法状态（忽略大小写与首尾空白）。
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	case StatusArchived:
		return StatusArchived, true
	}
	return "", false
}

// Post 为博客文章，由 blog.Store 独占维护。
type Post struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// EffectiveDate 返回排序用时间：publishedAt → updatedAt → createdAt。
func (p Post) EffectiveDate() time.Time {
	if p.PublishedAt != nil && !p.PublishedAt.IsZero() {
		return *p.PublishedAt
	}
	if !p.UpdatedAt.IsZero() {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// PostInput 为新增/局部更新的字段集合，nil 表示未提供。
type PostInput struct {
	Title   *string  `json:"title,omitempty"`
	Slug    *string  `json:"slug,omitempty"`
	Excerpt *string  `json:"excerpt,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    *TagList `json:"tags,omitempty"`
	Status  *string  `json:"status,omitempty"`
}

// TagList 接受 JSON 数组或逗号分隔字符串两种写法。
type TagList []string

func (t *TagList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = NormalizeTags(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags must be a list or a comma-separated string: %w", err)
	}
	*t = NormalizeTags(strings.Split(s, ","))
	return nil
}

// NormalizeTags 去除空白与空项，按首次出现顺序去重。
func NormalizeTags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MediumPost 为从 Medium 订阅或文章接口归一化得到的只读文章。
type MediumPost struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"publishedAt"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content,omitempty"`
	Image       string     `json:"image,omitempty"`
	Categories  []string   `json:"categories"`
}

// Source 标识时间线条目来源。
type Source string

const (
	SourceBlog   Source = "blog"
	SourceMedium Source = "medium"
)

// TimelineEntry 为博客页合并展示的条目。
type TimelineEntry struct {
	Source  Source    `json:"source"`
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Excerpt string    `json:"excerpt"`
	Link    string    `json:"link,omitempty"`
	Image   string    `json:"image,omitempty"`
	Tags    []string  `json:"tags"`
	Date    time.Time `json:"date"`
}

// Stats 为导出快照的统计信息。
type Stats struct {
	PostsTotal  int       `json:"posts_total"`
	MediumTotal int       `json:"medium_total"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Export 为静态导出 data.json 的顶层结构。
type Export struct {
	Stats    Stats           `json:"stats"`
	Posts    []Post          `json:"posts"`
	Medium   []MediumPost    `json:"medium"`
	Timeline []TimelineEntry `json:"timeline"`
}
