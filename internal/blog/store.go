// 包 blog 提供博客文章存储：
// - 以单个 JSON 文档（posts.json）保存全部文章，首次读取时由内置种子初始化
// - 维护 slug 唯一性与 draft/published/archived 状态流转
// - 写回失败（无权限/只读文件系统）时关闭写入，读路径继续读取磁盘文档
// - 文档既无法读取也无法创建时回退为只读种子
package blog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go-personal-site/internal/logx"
	"go-personal-site/internal/model"
)

// DataFile 为数据目录下的文章文档文件名。
const DataFile = "posts.json"

// excerptRunes 为自动摘要截取的字符数。
const excerptRunes = 240

//go:embed seed/posts.json
var bundledSeed []byte

// Options 为 Store 构造参数。
type Options struct {
	DataDir  string // posts.json 所在目录
	SeedPath string // 可选：覆盖内置种子文档
	Now      func() time.Time
}

// ListOptions 控制列表中是否包含草稿/归档文章；未登录调用方必须使用零值。
type ListOptions struct {
	IncludeDrafts   bool
	IncludeArchived bool
}

// Store 为基于 JSON 文件的文章存储。
// 每次变更都是整份文档的读-改-写，mu 保证同一进程内单写者。
type Store struct {
	path string
	seed []byte
	now  func() time.Time

	mu sync.Mutex
	// readOnly 表示写入已关闭；seedOnly 表示文档不可用，读路径改为种子
	readOnly bool
	seedOnly bool
	// writeFile 便于测试注入不可写错误
	writeFile func(path string, data []byte) error
}

// New 创建 Store；不会立即访问数据文件（首次操作时懒加载）。
func New(opts Options) (*Store, error) {
	dir := strings.TrimSpace(opts.DataDir)
	if dir == "" {
		dir = "./data"
	}
	seed := bundledSeed
	if opts.SeedPath != "" {
		b, err := os.ReadFile(opts.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", opts.SeedPath, err)
		}
		if _, err := decodePosts(b); err != nil {
			return nil, fmt.Errorf("seed %s: %w", opts.SeedPath, err)
		}
		seed = b
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		path:      filepath.Join(dir, DataFile),
		seed:      seed,
		now:       now,
		writeFile: atomicWrite,
	}, nil
}

// Path 返回文档路径。
func (s *Store) Path() string { return s.path }

// ReadOnly 报告写入是否已被关闭。
func (s *Store) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly
}

// ListPosts 返回满足状态过滤的文章，按 publishedAt/updatedAt/createdAt 倒序。
func (s *Store) ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	posts, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		switch p.Status {
		case model.StatusDraft:
			if !opts.IncludeDrafts {
				continue
			}
		case model.StatusArchived:
			if !opts.IncludeArchived {
				continue
			}
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate().After(out[j].EffectiveDate())
	})
	return out, nil
}

// GetPostBySlug 返回过滤后列表中第一篇匹配的文章。
func (s *Store) GetPostBySlug(ctx context.Context, slug string, opts ListOptions) (model.Post, error) {
	posts, err := s.ListPosts(ctx, opts)
	if err != nil {
		return model.Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return model.Post{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// AddPost 新增文章。标题派生的 slug 冲突时追加数字后缀；显式 slug 冲突返回 ErrConflict。
func (s *Store) AddPost(ctx context.Context, in model.PostInput) (model.Post, error) {
	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}
	title := trimmed(in.Title)
	content := trimmed(in.Content)
	if title == "" || content == "" {
		return model.Post{}, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load()
	if err != nil {
		return model.Post{}, err
	}

	var slug string
	if explicit := trimmed(in.Slug); explicit != "" {
		slug = Slugify(explicit)
		if slug == "" {
			return model.Post{}, fmt.Errorf("%w: unable to generate a slug for this post", ErrConflict)
		}
		if indexOf(posts, slug) >= 0 {
			return model.Post{}, fmt.Errorf("%w: a post with slug %q already exists", ErrConflict, slug)
		}
	} else {
		base := Slugify(title)
		if base == "" {
			return model.Post{}, fmt.Errorf("%w: unable to generate a slug for this post", ErrConflict)
		}
		slug = uniqueSlug(posts, base)
	}

	status := model.StatusDraft
	if in.Status != nil {
		if st, ok := model.ParseStatus(*in.Status); ok {
			status = st
		}
	}
	excerpt := trimmed(in.Excerpt)
	if excerpt == "" {
		excerpt = deriveExcerpt(content)
	}
	var tags []string
	if in.Tags != nil {
		tags = model.NormalizeTags(*in.Tags)
	}
	if tags == nil {
		tags = []string{}
	}

	now := s.now().UTC()
	p := model.Post{
		Slug:      slug,
		Title:     title,
		Excerpt:   excerpt,
		Content:   content,
		Tags:      tags,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == model.StatusPublished {
		p.PublishedAt = &now
	}
	if err := s.save(append([]model.Post{p}, posts...)); err != nil {
		return model.Post{}, err
	}
	logx.Infof("新增文章：slug=%s 状态=%s", p.Slug, p.Status)
	return p, nil
}

// UpdatePost 合并局部字段；状态流转：
// 首次进入 published 时写入 publishedAt，回到 draft 清空，archived 保留原值。
func (s *Store) UpdatePost(ctx context.Context, slug string, in model.PostInput) (model.Post, error) {
	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load()
	if err != nil {
		return model.Post{}, err
	}
	idx := indexOf(posts, slug)
	if idx < 0 {
		return model.Post{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	next := posts[idx]

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return model.Post{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		next.Title = t
	}
	if in.Content != nil {
		c := strings.TrimSpace(*in.Content)
		if c == "" {
			return model.Post{}, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		next.Content = c
	}
	if in.Slug != nil {
		ns := Slugify(*in.Slug)
		if ns == "" {
			return model.Post{}, fmt.Errorf("%w: unable to generate a slug for this post", ErrConflict)
		}
		if j := indexOf(posts, ns); j >= 0 && j != idx {
			return model.Post{}, fmt.Errorf("%w: a post with slug %q already exists", ErrConflict, ns)
		}
		next.Slug = ns
	}
	if in.Excerpt != nil {
		e := strings.TrimSpace(*in.Excerpt)
		if e == "" {
			e = deriveExcerpt(next.Content)
		}
		next.Excerpt = e
	}
	if in.Tags != nil {
		next.Tags = model.NormalizeTags(*in.Tags)
	}
	if in.Status != nil {
		st, ok := model.ParseStatus(*in.Status)
		if !ok {
			return model.Post{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		next.Status = st
	}

	now := s.now().UTC()
	switch next.Status {
	case model.StatusPublished:
		if next.PublishedAt == nil {
			next.PublishedAt = &now
		}
	case model.StatusDraft:
		next.PublishedAt = nil
	}
	next.UpdatedAt = now

	posts[idx] = next
	if err := s.save(posts); err != nil {
		return model.Post{}, err
	}
	logx.Infof("更新文章：slug=%s 状态=%s", next.Slug, next.Status)
	return next, nil
}

// DeletePost 删除文章。
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	posts, err := s.load()
	if err != nil {
		return err
	}
	idx := indexOf(posts, slug)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	posts = append(posts[:idx], posts[idx+1:]...)
	if err := s.save(posts); err != nil {
		return err
	}
	logx.Infof("删除文章：slug=%s", slug)
	return nil
}

// load 读取文档；缺失时以种子初始化，文档不可读也无法创建时回退为只读种子。调用方需持有 mu。
func (s *Store) load() ([]model.Post, error) {
	if s.seedOnly {
		return decodePosts(s.seed)
	}
	b, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		posts, err := decodePosts(b)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
		return posts, nil
	case errors.Is(err, fs.ErrNotExist):
		if werr := s.writeFile(s.path, s.seed); werr != nil {
			if !unwritable(werr) {
				return nil, fmt.Errorf("init %s from seed: %w", s.path, werr)
			}
			s.degrade(werr)
			s.seedOnly = true
		} else {
			logx.Infof("已由种子初始化文章文档：%s", s.path)
		}
		return decodePosts(s.seed)
	case unwritable(err):
		s.degrade(err)
		s.seedOnly = true
		return decodePosts(s.seed)
	default:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
}

// save 写回整份文档。
func (s *Store) save(posts []model.Post) error {
	if s.readOnly {
		return fmt.Errorf("%w: %s", ErrStorageUnavailable, storageHint)
	}
	b, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode posts: %w", err)
	}
	if err := s.writeFile(s.path, b); err != nil {
		if unwritable(err) {
			s.degrade(err)
			return fmt.Errorf("%w: %s", ErrStorageUnavailable, storageHint)
		}
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) degrade(cause error) {
	if !s.readOnly {
		logx.Warnf("文章文档不可写，已关闭写入：%s 错误=%v", s.path, cause)
	}
	s.readOnly = true
}

// atomicWrite 先写临时文件再重命名，避免读到半截文档。
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".posts-*.json")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func unwritable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS)
}

// decodePosts 解析文档并补齐旧数据缺失的状态/标签。
func decodePosts(b []byte) ([]model.Post, error) {
	var posts []model.Post
	if len(strings.TrimSpace(string(b))) == 0 {
		return posts, nil
	}
	if err := json.Unmarshal(b, &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		p := &posts[i]
		if st, ok := model.ParseStatus(string(p.Status)); ok {
			p.Status = st
		} else if p.PublishedAt != nil {
			p.Status = model.StatusPublished
		} else {
			p.Status = model.StatusDraft
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	return posts, nil
}

func indexOf(posts []model.Post, slug string) int {
	for i, p := range posts {
		if p.Slug == slug {
			return i
		}
	}
	return -1
}

func uniqueSlug(posts []model.Post, base string) string {
	if indexOf(posts, base) < 0 {
		return base
	}
	for n := 2; ; n++ {
		cand := base + "-" + strconv.Itoa(n)
		if indexOf(posts, cand) < 0 {
			return cand
		}
	}
}

func deriveExcerpt(content string) string {
	r := []rune(strings.TrimSpace(content))
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return strings.TrimSpace(string(r))
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
