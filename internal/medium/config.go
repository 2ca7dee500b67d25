package medium

import (
	"strings"
	"time"
)

// Config 描述一个 Medium 账号的订阅来源；每个 Adapter 持有自己的副本。
type Config struct {
	Username string // 不含 @
	Domain   string // 个人域名，默认 <username>.medium.com
	FeedURL  string // 显式订阅地址，默认 https://medium.com/feed/@<username>

	// ProfileBase/MediumBase 为拼接地址用的站点根（含协议），默认由 Domain 与 medium.com 推导。
	ProfileBase string
	MediumBase  string

	Timeout       time.Duration // 单次外部请求上限
	ContentWindow int           // 按 slug 查找时检索的订阅条目数
	DefaultLimit  int           // ListPosts 的 limit<=0 时使用
}

const (
	defaultTimeout       = 8 * time.Second
	defaultContentWindow = 30
	defaultLimit         = 6
	mediumSite           = "https://medium.com"
)

// withDefaults 填充默认值并去除末尾斜杠。
func (c Config) withDefaults() Config {
	c.Username = strings.TrimPrefix(strings.TrimSpace(c.Username), "@")
	c.Domain = strings.TrimSpace(c.Domain)
	if c.Domain == "" && c.Username != "" {
		c.Domain = c.Username + ".medium.com"
	}
	if c.ProfileBase == "" && c.Domain != "" {
		c.ProfileBase = "https://" + c.Domain
	}
	if c.MediumBase == "" {
		c.MediumBase = mediumSite
	}
	c.ProfileBase = strings.TrimRight(c.ProfileBase, "/")
	c.MediumBase = strings.TrimRight(c.MediumBase, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ContentWindow <= 0 {
		c.ContentWindow = defaultContentWindow
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = defaultLimit
	}
	return c
}

// FeedCandidates 返回按优先级排列且去重的订阅地址：
// 显式地址 → 个人域名 /feed → medium.com/feed/@user。
func (c Config) FeedCandidates() []string {
	c = c.withDefaults()
	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		out = append(out, u)
	}
	userFeed := ""
	if c.Username != "" {
		userFeed = c.MediumBase + "/feed/@" + c.Username
	}
	if c.FeedURL != "" {
		add(strings.TrimSpace(c.FeedURL))
	} else {
		add(userFeed)
	}
	if c.ProfileBase != "" {
		add(c.ProfileBase + "/feed")
	}
	add(userFeed)
	return out
}
