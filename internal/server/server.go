// 包 server 暴露站点 JSON API：
// - /api/blog：文章增删改查（写操作与草稿/归档查看需要管理员会话）、登录/注销/会话状态、时间线
// - /api/medium：Medium 文章列表与单篇（总是返回尽力而为的结果）
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"go-personal-site/internal/blog"
	"go-personal-site/internal/model"
	"go-personal-site/internal/session"
)

// PostStore 由 blog.Store 实现。
type PostStore interface {
	ListPosts(ctx context.Context, opts blog.ListOptions) ([]model.Post, error)
	GetPostBySlug(ctx context.Context, slug string, opts blog.ListOptions) (model.Post, error)
	AddPost(ctx context.Context, in model.PostInput) (model.Post, error)
	UpdatePost(ctx context.Context, slug string, in model.PostInput) (model.Post, error)
	DeletePost(ctx context.Context, slug string) error
}

// MediumSource 由 medium.Adapter 实现。
type MediumSource interface {
	ListPosts(ctx context.Context, limit int, includeContent bool) []model.MediumPost
	GetPostBySlug(ctx context.Context, slug string) *model.MediumPost
}

// TimelineSource 由 aggregate.Runner 实现。
type TimelineSource interface {
	Timeline(ctx context.Context, limit int) ([]model.TimelineEntry, error)
}

// Deps 为路由所需依赖；Medium/Timeline 为 nil 时对应路由返回空结果。
type Deps struct {
	Posts          PostStore
	Medium         MediumSource
	Timeline       TimelineSource
	Gate           *session.Gate
	CorsOrigins    []string
	LoginPerMinute int
	MediumLimit    int
	TimelineLimit  int
	// TrustProxy 为 true 时按 X-Forwarded-For/X-Real-IP 识别客户端（仅限反向代理之后部署）
	TrustProxy     bool
}

type handler struct {
	Deps
	login *loginLimiter
}

// New 构造路由。
func New(d Deps) http.Handler {
	if d.LoginPerMinute <= 0 {
		d.LoginPerMinute = 5
	}
	h := &handler{Deps: d, login: newLoginLimiter(d.LoginPerMinute, time.Minute)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: len(d.CorsOrigins) > 0 && d.CorsOrigins[0] != "*",
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/blog", func(r chi.Router) {
		r.Get("/posts", h.listPosts)
		r.Get("/posts/{slug}", h.getPost)
		r.Get("/timeline", h.timeline)
		r.With(h.login.limit).Post("/login", h.loginHandler)
		r.Post("/logout", h.logout)
		r.Get("/session", h.sessionStatus)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/posts", h.createPost)
			r.Patch("/posts/{slug}", h.updatePost)
			r.Delete("/posts/{slug}", h.deletePost)
		})
	})

	r.Route("/api/medium", func(r chi.Router) {
		r.Get("/posts", h.listMedium)
		r.Get("/posts/{slug}", h.getMedium)
	})
	return r
}

// requireAdmin 拒绝未登录请求。
func (h *handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Gate.IsAdmin(r) {
			respondError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
