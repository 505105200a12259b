package helpdeskproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/ShipDesk/internal/cache"
	"github.com/BearBump/ShipDesk/internal/integrations/freshdesk"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultCacheTTL = 10 * time.Minute
	maxBodyBytes    = 10 << 20

	cacheKeyPrefix = freshdesk.MetaCacheKeyPrefix
)

// metadata endpoints that change rarely and are safe to cache by full URI.
var cacheablePaths = []string{
	"/api/v2/agents",
	"/api/v2/groups",
	"/api/v2/ticket_fields",
}

// Proxy forwards /api/* and /v2/* to the helpdesk, injecting server-side
// credentials. Status and body are relayed verbatim.
type Proxy struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	cache    cache.BytesCache
	cacheTTL time.Duration
}

func New(domain, apiKey string) *Proxy {
	base := ""
	if d := strings.TrimSpace(domain); d != "" {
		base = "https://" + strings.TrimSuffix(d, "/")
	}
	return &Proxy{
		baseURL:  base,
		apiKey:   apiKey,
		httpc:    &http.Client{Timeout: defaultTimeout},
		cacheTTL: defaultCacheTTL,
	}
}

func (p *Proxy) WithBaseURL(u string) *Proxy {
	p.baseURL = strings.TrimSuffix(u, "/")
	return p
}

func (p *Proxy) WithHTTPClient(c *http.Client) *Proxy {
	if c != nil {
		p.httpc = c
	}
	return p
}

// WithCache enables caching of successful metadata GETs. ttl <= 0 keeps the default.
func (p *Proxy) WithCache(c cache.BytesCache, ttl time.Duration) *Proxy {
	p.cache = c
	if ttl > 0 {
		p.cacheTTL = ttl
	}
	return p
}

// Matches reports whether path belongs to the proxied namespace.
func Matches(path string) bool {
	return strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/v2/")
}

// UpstreamPath maps an incoming request URI onto the helpdesk API namespace.
func UpstreamPath(requestURI string) string {
	if strings.HasPrefix(requestURI, "/v2/") {
		return "/api" + requestURI
	}
	return requestURI
}

func cacheable(method, upstreamPath string) bool {
	if method != http.MethodGet {
		return false
	}
	path, _, _ := strings.Cut(upstreamPath, "?")
	for _, p := range cacheablePaths {
		if path == p {
			return true
		}
	}
	return false
}

// invalidatedPath returns the metadata collection a write touches, if any.
func invalidatedPath(method, upstreamPath string) (string, bool) {
	if method == http.MethodGet || method == http.MethodHead {
		return "", false
	}
	path, _, _ := strings.Cut(upstreamPath, "?")
	for _, p := range cacheablePaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return p, true
		}
	}
	return "", false
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !Matches(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	if p.baseURL == "" {
		writeError(w, http.StatusBadGateway, "Proxy failed")
		return
	}

	upstreamPath := UpstreamPath(r.URL.RequestURI())
	useCache := p.cache != nil && cacheable(r.Method, upstreamPath)

	if useCache {
		if b, ok := p.cacheGet(r.Context(), upstreamPath); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(b)
			return
		}
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, p.baseURL+upstreamPath, body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Proxy failed")
		return
	}
	req.Header.Set("Authorization", freshdesk.AuthHeader(p.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		slog.Warn("helpdesk proxy upstream failed", "path", upstreamPath, "error", err.Error())
		writeError(w, http.StatusBadGateway, "Proxy failed")
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Proxy failed")
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(data)

	if useCache && resp.StatusCode == http.StatusOK {
		p.cacheSet(r.Context(), upstreamPath, data)
	}
	// запись в справочник: сбрасываем закешированный список (варианты с query доживут до TTL)
	if coll, ok := invalidatedPath(r.Method, upstreamPath); ok && p.cache != nil && resp.StatusCode < 300 {
		if err := p.cache.Delete(r.Context(), cacheKeyPrefix+coll); err != nil {
			slog.Warn("helpdesk cache delete", "key", coll, "error", err.Error())
		}
	}
}

func (p *Proxy) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	b, ok, err := p.cache.Get(ctx, cacheKeyPrefix+key)
	if err != nil {
		// кеш недоступен: идём в upstream
		slog.Warn("helpdesk cache get", "key", key, "error", err.Error())
		return nil, false
	}
	return b, ok
}

func (p *Proxy) cacheSet(ctx context.Context, key string, b []byte) {
	if err := p.cache.Set(ctx, cacheKeyPrefix+key, b, p.cacheTTL); err != nil {
		slog.Warn("helpdesk cache set", "key", key, "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
