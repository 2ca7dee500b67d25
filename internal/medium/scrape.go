package medium

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"go-personal-site/internal/fetch"
	"go-personal-site/internal/model"
)

// Scraper 按 slug 获取不在订阅窗口内的单篇文章。
type Scraper interface {
	Scrape(ctx context.Context, slug string) (*model.MediumPost, error)
}

// imageBase 为 Medium 图片 CDN 地址前缀，后接资源 id。
const imageBase = "https://miro.medium.com/max/1400/"

// articleID 匹配 slug 末尾的 12 位十六进制文章 id。
var articleID = regexp.MustCompile(`(?:^|-)([0-9a-f]{12})$`)

// JSONScraper 通过 "<url>?format=json" 非公开接口抓取文章正文。
type JSONScraper struct {
	cfg Config
	cl  *fetch.Client
}

func NewJSONScraper(cfg Config, cl *fetch.Client) *JSONScraper {
	return &JSONScraper{cfg: cfg.withDefaults(), cl: cl}
}

// Candidates 返回待尝试的文章 JSON 地址（个人域名与 medium.com，含/不含 p/<id>）。
func (s *JSONScraper) Candidates(slug string) []string {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	if slug == "" {
		return nil
	}
	id := ""
	if m := articleID.FindStringSubmatch(slug); m != nil {
		id = m[1]
	}
	esc := url.PathEscape(slug)
	var out []string
	if s.cfg.ProfileBase != "" {
		out = append(out, s.cfg.ProfileBase+"/"+esc)
		if id != "" {
			out = append(out, s.cfg.ProfileBase+"/p/"+id)
		}
	}
	if s.cfg.Username != "" {
		out = append(out, s.cfg.MediumBase+"/@"+s.cfg.Username+"/"+esc)
	}
	if id != "" {
		out = append(out, s.cfg.MediumBase+"/p/"+id)
	}
	for i := range out {
		out[i] += "?format=json"
	}
	return out
}

// Scrape 依次尝试候选地址，返回第一个可用的文章；全部失败时返回合并后的错误。
func (s *JSONScraper) Scrape(ctx context.Context, slug string) (*model.MediumPost, error) {
	var errs []error
	for _, u := range s.Candidates(slug) {
		p, err := s.scrapeOne(ctx, u, slug)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}
		return p, nil
	}
	if len(errs) == 0 {
		return nil, errors.New("no scrape candidates")
	}
	return nil, errors.Join(errs...)
}

func (s *JSONScraper) scrapeOne(ctx context.Context, u, slug string) (*model.MediumPost, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	resp, err := s.cl.Get(reqCtx, u, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	p, err := parseArticle(body, slug, s.cfg.ProfileBase)
	if err != nil {
		return nil, err
	}
	if p.Link == "" {
		p.Link = strings.TrimSuffix(u, "?format=json")
	}
	return p, nil
}

// parseArticle 去掉防 JSON 劫持前缀（如 "])}while(1);</x>"），按段落类型重建 HTML。
func parseArticle(body []byte, slug, profileBase string) (*model.MediumPost, error) {
	raw := string(body)
	i := strings.IndexByte(raw, '{')
	if i < 0 {
		return nil, errors.New("no json payload")
	}
	raw = raw[i:]
	if !gjson.Valid(raw) {
		return nil, errors.New("invalid json payload")
	}
	v := gjson.Get(raw, "payload.value")
	if !v.Exists() {
		return nil, errors.New("payload.value missing")
	}
	article := renderParagraphs(v.Get("content.bodyModel.paragraphs").Array())
	if article == "" {
		return nil, errors.New("empty article body")
	}
	p := &model.MediumPost{
		Slug:    slug,
		Title:   strings.TrimSpace(v.Get("title").String()),
		Link:    firstNonEmpty(v.Get("mediumUrl").String(), v.Get("canonicalUrl").String()),
		Content: contentPolicy.Sanitize(article),
	}
	for _, key := range []string{"firstPublishedAt", "latestPublishedAt", "createdAt"} {
		if ms := v.Get(key).Int(); ms > 0 {
			t := time.UnixMilli(ms).UTC()
			p.PublishedAt = &t
			break
		}
	}
	excerpt := strings.TrimSpace(v.Get("content.subtitle").String())
	if excerpt == "" {
		excerpt = plainText(article)
	}
	p.Excerpt = truncate(excerpt, excerptRunes)
	if id := v.Get("virtuals.previewImage.imageId").String(); id != "" {
		p.Image = imageBase + id
	} else {
		p.Image = normalizeImage(firstImage(article), profileBase)
	}
	var cats []string
	for _, t := range v.Get("virtuals.tags.#.name").Array() {
		cats = append(cats, t.String())
	}
	p.Categories = model.NormalizeTags(cats)
	return p, nil
}

// renderParagraphs 将 bodyModel 段落转换为 HTML：
// 2/3/13 → h1/h2/h3，6/7 → blockquote，4 → 图片，8 → pre，其余 → p。
func renderParagraphs(paras []gjson.Result) string {
	var b strings.Builder
	for _, para := range paras {
		text := html.EscapeString(para.Get("text").String())
		typ := para.Get("type").Int()
		if typ == 4 {
			if id := para.Get("metadata.id").String(); id != "" {
				fmt.Fprintf(&b, `<img src="%s" alt="%s">`, imageBase+html.EscapeString(id), text)
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		switch typ {
		case 2:
			b.WriteString("<h1>" + text + "</h1>")
		case 3:
			b.WriteString("<h2>" + text + "</h2>")
		case 13:
			b.WriteString("<h3>" + text + "</h3>")
		case 6, 7:
			b.WriteString("<blockquote>" + text + "</blockquote>")
		case 8:
			b.WriteString("<pre>" + text + "</pre>")
		default:
			b.WriteString("<p>" + text + "</p>")
		}
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
