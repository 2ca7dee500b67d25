package medium

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"go-personal-site/internal/blog"
	"go-personal-site/internal/model"
)

// excerptRunes 为 Medium 摘要的最大字符数。
const excerptRunes = 260

var (
	stripPolicy = func() *bluemonday.Policy {
		p := bluemonday.StripTagsPolicy()
		p.AddSpaceWhenStrippingTag(true)
		return p
	}()
	contentPolicy = bluemonday.UGCPolicy()
)

// normalizeItem 将订阅条目归一化为 MediumPost；idx 用于 slug 的位置兜底。
func normalizeItem(it *gofeed.Item, idx int, withContent bool, profileBase string) model.MediumPost {
	raw := it.Content
	if strings.TrimSpace(raw) == "" {
		raw = it.Description
	}
	p := model.MediumPost{
		Slug:       itemSlug(it, idx),
		Title:      strings.TrimSpace(it.Title),
		Link:       strings.TrimSpace(it.Link),
		Categories: model.NormalizeTags(it.Categories),
	}
	if it.PublishedParsed != nil {
		t := it.PublishedParsed.UTC()
		p.PublishedAt = &t
	} else if it.UpdatedParsed != nil {
		t := it.UpdatedParsed.UTC()
		p.PublishedAt = &t
	}
	excerpt := plainText(it.Description)
	if excerpt == "" {
		excerpt = plainText(it.Content)
	}
	p.Excerpt = truncate(excerpt, excerptRunes)
	p.Image = normalizeImage(itemImage(it, raw), profileBase)
	if withContent {
		p.Content = contentPolicy.Sanitize(raw)
	}
	return p
}

// itemSlug：链接末段 → guid 末段 → 标题 → medium-post-<n>。
func itemSlug(it *gofeed.Item, idx int) string {
	for _, cand := range []string{it.Link, it.GUID} {
		if s := lastSegmentSlug(cand); s != "" {
			return s
		}
	}
	if s := blog.Slugify(it.Title); s != "" {
		return s
	}
	return fmt.Sprintf("medium-post-%d", idx+1)
}

func lastSegmentSlug(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return blog.Slugify(path)
}

// itemImage：图片附件/订阅图片 → 正文中的第一个 <img>。
func itemImage(it *gofeed.Item, raw string) string {
	for _, enc := range it.Enclosures {
		if enc != nil && enc.URL != "" && (enc.Type == "" || strings.HasPrefix(enc.Type, "image/")) {
			return enc.URL
		}
	}
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	return firstImage(raw)
}

func firstImage(rawHTML string) string {
	if !strings.Contains(rawHTML, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// normalizeImage 补全协议相对（//）与根相对（/）地址。
func normalizeImage(src, profileBase string) string {
	src = strings.TrimSpace(src)
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "/") && profileBase != "":
		return profileBase + src
	}
	return src
}

// plainText 去除 HTML 标签并合并空白。
func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
