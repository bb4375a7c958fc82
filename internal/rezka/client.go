// Package rezka talks to a mirror of the portal: it fetches pages and ajax
// answers and hands them to the extractors.
package rezka

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bugmaschine/rzk/internal/extractors"
	"github.com/bugmaschine/rzk/pkg/config"
	"golang.org/x/time/rate"
)

const cdnSeriesPath = "/ajax/get_cdn_series/"

// StatusError is a response with a non 2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d for %s", e.Code, e.URL)
}

// PageFetcher loads a rendered page, e.g. through a browser.
type PageFetcher interface {
	Page(ctx context.Context, url string) (string, error)
}

type Client struct {
	origin     string
	originHost string
	userAgent  string
	cookies    map[string]string
	client     *http.Client
	limiter    *rate.Limiter
	browser    PageFetcher
	extractor  *extractors.Extractor
}

// NewClient builds a client for cfg.Origin. The premium flag of every page
// is stored in runtime.
func NewClient(cfg config.Config, runtime *config.Runtime) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, int(cfg.RateLimit)))
	}

	origin := strings.TrimSuffix(cfg.Origin, "/")
	x := extractors.New(origin)
	if runtime != nil {
		x.OnPremium = runtime.SetPremium
	}

	originHost := ""
	if u, err := url.Parse(origin); err == nil {
		originHost = u.Host
	}

	return &Client{
		origin:     origin,
		originHost: originHost,
		userAgent:  cfg.UserAgent,
		cookies:    cfg.Cookies,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		extractor:  x,
	}
}

// SetBrowser routes page loads through b. Ajax calls keep using HTTP.
func (c *Client) SetBrowser(b PageFetcher) *Client {
	c.browser = b
	return c
}

func (c *Client) Origin() string {
	return c.origin
}

func (c *Client) Extractor() *extractors.Extractor {
	return c.extractor
}

// URL resolves a site relative path against the origin.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.origin + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Referer", c.origin+"/")
	// Account cookies stay on the mirror, CDN hosts only get the referer.
	if req.URL.Host == c.originHost {
		for _, cookie := range c.cookieList() {
			req.AddCookie(cookie)
		}
	}

	slog.Debug("Sending request", "method", req.Method, "url", req.URL.String())
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// cookieList returns the configured cookies in a stable order.
func (c *Client) cookieList() []*http.Cookie {
	names := make([]string, 0, len(c.cookies))
	for name := range c.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{Name: name, Value: c.cookies[name]})
	}
	return cookies
}

// Fetch downloads any URL with the client's headers and pacing.
func (c *Client) Fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

// Page returns the HTML of a site page.
func (c *Client) Page(ctx context.Context, path string) (string, error) {
	target := c.URL(path)
	if c.browser != nil {
		if err := c.wait(ctx); err != nil {
			return "", err
		}
		return c.browser.Page(ctx, target)
	}

	body, err := c.Fetch(ctx, target)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	return string(body), nil
}

// ajax posts form to an ajax endpoint. The answer is returned unparsed.
func (c *Client) ajax(ctx context.Context, path string, form url.Values) (string, error) {
	target := c.URL(path) + "?t=" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ajax %s failed: %w", form.Get("action"), err)
	}
	return string(body), nil
}

// ajaxGet is ajax for the endpoints the site queries with GET.
func (c *Client) ajaxGet(ctx context.Context, path string, query url.Values) (string, error) {
	query.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path)+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	body, err := c.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ajax %s failed: %w", path, err)
	}
	return string(body), nil
}
