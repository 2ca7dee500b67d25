// 包 session 为后台管理的登录闸门：
// 校验管理员账号密码，签发带 HS256 签名的 blog_admin Cookie，并据此判断请求是否为管理员。
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-personal-site/internal/logx"
)

// CookieName 为管理员会话 Cookie 名称。
const CookieName = "blog_admin"

const subject = "blog_admin"

var (
	ErrNotConfigured      = errors.New("admin credentials are not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Options 为 Gate 构造参数。
type Options struct {
	Username string
	Password string
	Secret   string        // 签名密钥；为空时每次启动随机生成
	TTL      time.Duration // 默认 12 小时
	Secure   bool          // 生产环境开启 Secure Cookie
	Now      func() time.Time
}

// Gate 判定请求是否来自已登录管理员。
type Gate struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

func New(opts Options) (*Gate, error) {
	secret := []byte(opts.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logx.Warnf("未配置会话密钥，已随机生成；重启后需重新登录")
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Gate{
		username: opts.Username,
		password: opts.Password,
		secret:   secret,
		ttl:      opts.TTL,
		secure:   opts.Secure,
		now:      opts.Now,
	}, nil
}

// Configured 报告管理员账号密码是否都已配置。
func (g *Gate) Configured() bool { return g.username != "" && g.password != "" }

// Check 以常量时间比较提交的账号密码。
func (g *Gate) Check(username, password string) error {
	if !g.Configured() {
		return ErrNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}

// Issue 签发会话 Cookie。
func (g *Gate) Issue() (*http.Cookie, error) {
	now := g.now()
	exp := now.Add(g.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(g.ttl / time.Second),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear 返回用于注销的过期 Cookie。
func (g *Gate) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// IsAdmin 校验请求中的会话 Cookie（签名、过期时间与 subject）。
func (g *Gate) IsAdmin(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(subject),
	)
	return err == nil && token.Valid
}
