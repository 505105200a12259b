package resilient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Fetcher issues single-attempt GETs through an optional forwarding endpoint.
// It is safe for concurrent use.
type Fetcher struct {
	httpc      *http.Client
	forwardURL string

	rl                 RateLimiter
	rateLimitPerMinute int64

	totalRequests  atomic.Int64
	totalFallbacks atomic.Int64

	mu            sync.Mutex
	failures      map[string]int64
	lastError     string
	lastErrorTag  string
	lastErrorKind string
	lastErrorAt   time.Time
}

func New(forwardURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		httpc:      &http.Client{Timeout: timeout},
		forwardURL: forwardURL,
		failures:   make(map[string]int64),
	}
}

// WithRateLimit caps upstream requests per host and minute. A denied request is
// treated as ErrRateLimited without touching the network.
func (f *Fetcher) WithRateLimit(rl RateLimiter, perMinute int) *Fetcher {
	if rl != nil && perMinute > 0 {
		f.rl = rl
		f.rateLimitPerMinute = int64(perMinute)
	}
	return f
}

func (f *Fetcher) WithHTTPClient(c *http.Client) *Fetcher {
	if c != nil {
		f.httpc = c
	}
	return f
}

func (f *Fetcher) requestURL(target string) string {
	if f.forwardURL == "" {
		return target
	}
	return f.forwardURL + url.QueryEscape(target)
}

// Get performs one GET and decodes the JSON body into T. Failures are classified
// into the package's error taxonomy.
func Get[T any](ctx context.Context, f *Fetcher, target string, headers http.Header) (T, error) {
	var out T
	f.totalRequests.Add(1)

	if err := f.allow(ctx, target); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(target), nil)
	if err != nil {
		return out, errors.Wrap(ErrNetwork, fmt.Sprintf("new request: %v", err))
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.httpc.Do(req)
	if err != nil {
		return out, errors.Wrap(ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	if err := Classify(resp.StatusCode); err != nil {
		return out, err
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		var zero T
		return zero, errors.Wrap(ErrParse, err.Error())
	}
	return out, nil
}

// GetWithFallback never fails: on any error it logs a warning tagged with tag and
// returns fallback(). Callers must treat such values as synthetic.
func GetWithFallback[T any](ctx context.Context, f *Fetcher, target string, headers http.Header, tag string, fallback func() T) T {
	out, err := Get[T](ctx, f, target, headers)
	if err == nil {
		return out
	}
	f.recordFallback(tag, err)
	slog.Warn("fetch failed, switching to fallback", "context", tag, "kind", Kind(err), "error", err.Error())
	return fallback()
}

func (f *Fetcher) allow(ctx context.Context, target string) error {
	if f.rl == nil || f.rateLimitPerMinute <= 0 {
		return nil
	}
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	allowed, n, err := f.rl.Allow(ctx, "rl:upstream:"+host, f.rateLimitPerMinute, time.Minute)
	if err != nil {
		// лимитер недоступен: не блокируем запросы
		slog.Warn("rate limiter unavailable", "host", host, "error", err.Error())
		return nil
	}
	if !allowed {
		return errors.Wrapf(ErrRateLimited, "local limit exceeded for %s (%d/%d per minute)", host, n, f.rateLimitPerMinute)
	}
	return nil
}

func (f *Fetcher) recordFallback(tag string, err error) {
	f.totalFallbacks.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	kind := Kind(err)
	f.failures[kind]++
	f.lastError = err.Error()
	f.lastErrorTag = tag
	f.lastErrorKind = kind
	f.lastErrorAt = time.Now().UTC()
}

type Stats struct {
	TotalRequests    int64            `json:"totalRequests"`
	TotalFallbacks   int64            `json:"totalFallbacks"`
	Failures         map[string]int64 `json:"failures"`
	LastError        string           `json:"lastError,omitempty"`
	LastErrorKind    string           `json:"lastErrorKind,omitempty"`
	LastErrorContext string           `json:"lastErrorContext,omitempty"`
	LastErrorAt      *time.Time       `json:"lastErrorAt,omitempty"`
}

func (f *Fetcher) Stats() Stats {
	st := Stats{
		TotalRequests:  f.totalRequests.Load(),
		TotalFallbacks: f.totalFallbacks.Load(),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	st.Failures = make(map[string]int64, len(f.failures))
	for k, v := range f.failures {
		st.Failures[k] = v
	}
	st.LastError = f.lastError
	st.LastErrorKind = f.lastErrorKind
	st.LastErrorContext = f.lastErrorTag
	if !f.lastErrorAt.IsZero() {
		t := f.lastErrorAt
		st.LastErrorAt = &t
	}
	return st
}
