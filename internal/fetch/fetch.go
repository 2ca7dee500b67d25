// 包 fetch 封装出站 HTTP 客户端（代理/超时/请求头/重试），用于抓取 Medium 订阅与文章接口。
package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultUserAgent 可被 Options.UserAgent 或环境变量 SITE_UA 覆盖。
const DefaultUserAgent = "personal-site-medium-integration"

// Client 为带可选重试的 HTTP 客户端。
type Client struct {
	http    *http.Client
	retry   int
	ua      string
	headers map[string]string
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	UserAgent  string
	Headers    map[string]string // 每个请求附带的默认请求头（如 Accept）
}

// New 创建客户端；代理为空时遵循 HTTP(S)_PROXY 环境变量。
func New(opts Options) (*Client, error) {
	var proxyHTTP, proxyHTTPS *url.URL
	var err error
	if opts.ProxyHTTP != "" {
		if proxyHTTP, err = url.Parse(opts.ProxyHTTP); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if opts.ProxyHTTPS != "" {
		if proxyHTTPS, err = url.Parse(opts.ProxyHTTPS); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && proxyHTTPS != nil {
				return proxyHTTPS, nil
			}
			if req.URL.Scheme == "http" && proxyHTTP != nil {
				return proxyHTTP, nil
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 8 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   4,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	ua := opts.UserAgent
	if v := os.Getenv("SITE_UA"); v != "" {
		ua = v
	}
	if ua == "" {
		ua = DefaultUserAgent
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	return &Client{
		http:    &http.Client{Transport: transport, Timeout: opts.Timeout},
		retry:   opts.Retry,
		ua:      ua,
		headers: opts.Headers,
	}, nil
}

// Get 发起 GET；非 2xx 视为失败，按线性回退重试 retry 次。
// extra 中的请求头覆盖默认值。
func (c *Client) Get(ctx context.Context, rawURL string, extra ...map[string]string) (*http.Response, error) {
	var lastErr error
	for i := 0; i <= c.retry; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("User-Agent", c.ua)
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		for _, h := range extra {
			for k, v := range h {
				req.Header.Set(k, v)
			}
		}
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			lastErr = fmt.Errorf("http status: %s", resp.Status)
			resp.Body.Close()
		} else {
			lastErr = err
		}
		if i == c.retry {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return nil, lastErr
}
