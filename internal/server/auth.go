package server

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-personal-site/internal/logx"
	"go-personal-site/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handler) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Gate.Check(req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, session.ErrNotConfigured):
			respondError(w, http.StatusInternalServerError, "Admin credentials are not configured.")
		default:
			logx.Warnf("管理员登录失败：ip=%s", clientIP(r))
			respondError(w, http.StatusUnauthorized, "Invalid credentials.")
		}
		return
	}
	c, err := h.Gate.Issue()
	if err != nil {
		logx.Errorf("签发会话失败：%v", err)
		respondError(w, http.StatusInternalServerError, "Unable to start session.")
		return
	}
	http.SetCookie(w, c)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.Gate.Clear())
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	if !h.Gate.IsAdmin(r) {
		respondJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

// loginLimiter 为每个客户端 IP 维护一个令牌桶，限制登录尝试频率。
type loginLimiter struct {
	mu       sync.Mutex
	perMin   int
	idle     time.Duration
	visitors map[string]*visitor
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLoginLimiter(perMin int, window time.Duration) *loginLimiter {
	return &loginLimiter{perMin: perMin, idle: 3 * window, visitors: make(map[string]*visitor)}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, k)
		}
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMin)), l.perMin)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.AllowN(now, 1)
}

func (l *loginLimiter) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			respondError(w, http.StatusTooManyRequests, "Too many login attempts.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP 取 RemoteAddr 的主机部分（TrustProxy 时已由 middleware.RealIP 改写）。
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
