// 命令行入口：
// - 加载 .env 与 settings.yaml（环境变量覆盖）
// - 初始化日志、HTTP 客户端、文章存储、Medium 适配器与可选的文章缓存
// - 默认启动 JSON API 与周期任务；-export 导出 data.json，-medium 打印 Medium 订阅后退出
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"go-personal-site/internal/aggregate"
	"go-personal-site/internal/blog"
	"go-personal-site/internal/config"
	"go-personal-site/internal/export"
	"go-personal-site/internal/fetch"
	"go-personal-site/internal/logx"
	"go-personal-site/internal/medium"
	"go-personal-site/internal/schedule"
	"go-personal-site/internal/server"
	"go-personal-site/internal/session"
	"go-personal-site/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml (optional)")
		exportPath = flag.String("export", "", "write a data.json snapshot to this path and exit")
		showMedium = flag.Bool("medium", false, "print the Medium feed as parsed and exit")
		resetCache = flag.Bool("reset-cache", false, "empty the Medium article cache before starting")
	)
	flag.Parse()

	// 1) 加载 .env 与配置
	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logx.Init(logx.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Locale: cfg.LogLocale,
		Color:  cfg.LogColor,
	})

	// 2) 出站 HTTP 客户端；单次请求超时由 Medium 适配器控制
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    cfg.Medium.Timeout + 2*time.Second,
		Retry:      cfg.Fetch.Retry,
		UserAgent:  cfg.Medium.UserAgent,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}

	// 3) Medium 适配器与可选的文章缓存
	ctx := context.Background()
	mcfg := medium.Config{
		Username:     cfg.Medium.Username,
		Domain:       cfg.Medium.Domain,
		FeedURL:      cfg.Medium.FeedURL,
		Timeout:      cfg.Medium.Timeout,
		DefaultLimit: cfg.Medium.FeedLimit,
	}
	var opts []medium.Option
	if cfg.Medium.NoScrape {
		opts = append(opts, medium.WithScraper(nil))
	}
	var cache *store.SQLite
	if cfg.Cache.DSN != "" {
		cache, err = store.OpenSQLite(cfg.Cache.DSN)
		if err != nil {
			logx.Warnf("打开文章缓存失败，继续运行但不缓存：%v", err)
			cache = nil
		} else {
			defer cache.Close()
			if *resetCache {
				if err := cache.Reset(ctx); err != nil {
					log.Fatalf("reset cache: %v", err)
				}
				logx.Infof("已清空文章缓存：%s", cfg.Cache.DSN)
			}
			if err := cache.CleanOld(ctx, cfg.Cache.CleanDays); err != nil {
				logx.Warnf("清理过期缓存失败：%v", err)
			}
			if n, err := cache.CountArticles(ctx); err == nil {
				logx.Infof("文章缓存：%s 条目数=%d", cfg.Cache.DSN, n)
			}
			opts = append(opts, medium.WithCache(cache, time.Duration(cfg.Cache.TTLHours)*time.Hour))
		}
	}
	md := medium.New(mcfg, cl, opts...)

	if *showMedium {
		// 调试：打印解析结果后退出
		logx.Infof("Medium 订阅候选：%v", md.Config().FeedCandidates())
		posts := md.ListPosts(ctx, cfg.Medium.FeedLimit, false)
		if len(posts) == 0 {
			logx.Warnf("未获取到 Medium 文章，请检查 MEDIUM.username / feed_url")
		}
		for _, p := range posts {
			logx.Infof("- slug=%s 标题=%q 链接=%s 图片=%s", p.Slug, p.Title, p.Link, p.Image)
		}
		return
	}

	// 4) 文章存储
	posts, err := blog.New(blog.Options{DataDir: cfg.Blog.DataDir, SeedPath: cfg.Blog.SeedPath})
	if err != nil {
		log.Fatalf("blog store: %v", err)
	}
	run := aggregate.New(posts, md, cfg.Medium.TimelineMax)

	if *exportPath != "" {
		if err := export.ToJSON(ctx, run, *exportPath); err != nil {
			logx.Errorf("导出失败：%v", err)
			os.Exit(1)
		}
		logx.Infof("已导出 %s", *exportPath)
		return
	}

	// 5) 周期任务：定时导出快照、清理文章缓存
	sched := schedule.New()
	exportJob := func(ctx context.Context) error {
		return export.ToJSON(ctx, run, cfg.Schedule.ExportPath)
	}
	exportOn, err := sched.Add("export", cfg.Schedule.ExportCron, exportJob)
	if err != nil {
		log.Fatalf("schedule: %v", err)
	}
	if cache != nil {
		if _, err := sched.Add("cache-clean", cfg.Schedule.CleanCron, func(ctx context.Context) error {
			return cache.CleanOld(ctx, cfg.Cache.CleanDays)
		}); err != nil {
			log.Fatalf("schedule: %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()
	if exportOn {
		// 启动时先导出一次，不必等到第一个周期
		go sched.RunNow("export", exportJob)
	}

	// 6) 会话闸门与 HTTP 服务
	gate, err := session.New(session.Options{
		Username: cfg.Admin.Username,
		Password: cfg.Admin.Password,
		Secret:   cfg.Admin.SessionSecret,
		TTL:      cfg.Admin.SessionTTL,
		Secure:   cfg.Admin.SecureCookie,
	})
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	if !gate.Configured() {
		logx.Warnf("未配置管理员账号（BLOG_ADMIN_USERNAME/BLOG_ADMIN_PASSWORD），后台登录不可用")
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: server.New(server.Deps{
			Posts:          posts,
			Medium:         md,
			Timeline:       run,
			Gate:           gate,
			CorsOrigins:    cfg.CorsOrigins,
			LoginPerMinute: cfg.Admin.LoginPerMin,
			MediumLimit:    cfg.Medium.FeedLimit,
			TimelineLimit:  cfg.Medium.TimelineMax,
			TrustProxy:     cfg.Server.TrustProxy,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logx.Infof("开始监听 %s（文章文档=%s）", cfg.Server.Addr, posts.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Errorf("关闭服务失败：%v", err)
	}
}
