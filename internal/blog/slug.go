package blog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun  = regexp.MustCompile(`[\s\p{Zs}]+`)
	notSlug   = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRun = regexp.MustCompile(`-{2,}`)
)

// Slugify 生成 URL 友好的 slug：
// 小写、去重音、空白转连字符、移除 [a-z0-9-] 以外字符、合并并修剪连字符。
// 例如 "C++ & Go: A Tale!" → "c-go-a-tale"。
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(strings.TrimSpace(out))
	out = spaceRun.ReplaceAllString(out, "-")
	out = notSlug.ReplaceAllString(out, "")
	out = hyphenRun.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}
