// 包 config 负责加载与校验站点配置：
// settings.yaml 提供基础值，环境变量（可来自 .env）覆盖部署相关字段。
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      Server   `yaml:"SERVER"`
	Blog        Blog     `yaml:"BLOG"`
	Admin       Admin    `yaml:"ADMIN"`
	Medium      Medium   `yaml:"MEDIUM"`
	Cache       Cache    `yaml:"CACHE"`
	Fetch       Fetch    `yaml:"FETCH"`
	Schedule    Schedule `yaml:"SCHEDULE"`
	Proxy       Proxy    `yaml:"PROXY"`
	CorsOrigins []string `yaml:"CORS_ORIGINS"`
	LogLevel    string   `yaml:"LOG_LEVEL"`
	LogFormat   string   `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale   string   `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor    string   `yaml:"LOG_COLOR"`  // auto|always|never
}

type Server struct {
	Addr       string `yaml:"addr"`
	TrustProxy bool   `yaml:"trust_proxy"` // 位于反向代理之后时开启
}

type Blog struct {
	DataDir  string `yaml:"data_dir"`
	SeedPath string `yaml:"seed"` // 可选，覆盖内置种子
}

type Admin struct {
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookie  bool          `yaml:"secure_cookie"`
	LoginPerMin   int           `yaml:"login_per_minute"`
}

type Medium struct {
	Username    string        `yaml:"username"`
	Domain      string        `yaml:"domain"`
	FeedURL     string        `yaml:"feed_url"`
	Timeout     time.Duration `yaml:"timeout"`
	FeedLimit   int           `yaml:"feed_limit"`
	UserAgent   string        `yaml:"user_agent"`
	NoScrape    bool          `yaml:"disable_scrape"`
	TimelineMax int           `yaml:"timeline_limit"`
}

type Cache struct {
	DSN       string `yaml:"dsn"` // 为空表示不缓存抓取的文章
	TTLHours  int    `yaml:"ttl_hours"`
	CleanDays int    `yaml:"clean_days"`
}

type Fetch struct {
	Retry int `yaml:"retry"`
}

// Schedule 为服务模式下的周期任务（cron 表达式，空表示不启用）。
type Schedule struct {
	ExportPath string `yaml:"export_path"`
	ExportCron string `yaml:"export_cron"`
	CleanCron  string `yaml:"clean_cron"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// overrides 为可由环境变量覆盖的字段，空值不覆盖。
type overrides struct {
	Port          string `env:"PORT"`
	DataDir       string `env:"BLOG_DATA_DIR"`
	AdminUsername string `env:"BLOG_ADMIN_USERNAME"`
	AdminPassword string `env:"BLOG_ADMIN_PASSWORD"`
	SessionSecret string `env:"BLOG_SESSION_SECRET"`
	Production    bool   `env:"SITE_PRODUCTION"`
	MediumUser    string `env:"MEDIUM_USERNAME"`
	MediumDomain  string `env:"MEDIUM_DOMAIN"`
	MediumFeedURL string `env:"MEDIUM_FEED_URL"`
	CacheDSN      string `env:"MEDIUM_CACHE_DSN"`
	LogLevel      string `env:"LOG_LEVEL"`
}

// Load 读取 YAML（文件不存在时仅使用默认值），应用环境变量覆盖并校验。
func Load(path string) (*Config, error) {
	var c Config
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return b, nil
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if o.Port != "" {
		c.Server.Addr = ":" + o.Port
	}
	set(&c.Blog.DataDir, o.DataDir)
	set(&c.Admin.Username, o.AdminUsername)
	set(&c.Admin.Password, o.AdminPassword)
	set(&c.Admin.SessionSecret, o.SessionSecret)
	set(&c.Medium.Username, o.MediumUser)
	set(&c.Medium.Domain, o.MediumDomain)
	set(&c.Medium.FeedURL, o.MediumFeedURL)
	set(&c.Cache.DSN, o.CacheDSN)
	set(&c.LogLevel, o.LogLevel)
	if o.Production {
		c.Admin.SecureCookie = true
	}
	return nil
}

// Validate 负责合法性检查与默认值设置。
func (c *Config) Validate() error {
	if c.Medium.FeedLimit < 0 {
		return errors.New("MEDIUM.feed_limit must be >= 0")
	}
	if c.Medium.Timeout < 0 {
		return errors.New("MEDIUM.timeout must be >= 0")
	}
	if c.Cache.TTLHours < 0 || c.Cache.CleanDays < 0 {
		return errors.New("CACHE.ttl_hours and CACHE.clean_days must be >= 0")
	}
	if c.Schedule.ExportCron != "" && c.Schedule.ExportPath == "" {
		return errors.New("SCHEDULE.export_path is required when export_cron is set")
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Blog.DataDir == "" {
		c.Blog.DataDir = "./data"
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 12 * time.Hour
	}
	if c.Admin.LoginPerMin <= 0 {
		c.Admin.LoginPerMin = 5
	}
	if c.Medium.Timeout == 0 {
		c.Medium.Timeout = 8 * time.Second
	}
	if c.Medium.FeedLimit == 0 {
		c.Medium.FeedLimit = 6
	}
	if c.Medium.TimelineMax <= 0 {
		c.Medium.TimelineMax = 9
	}
	if c.Fetch.Retry < 0 {
		c.Fetch.Retry = 0
	}
	if len(c.CorsOrigins) == 0 {
		c.CorsOrigins = []string{"*"}
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
