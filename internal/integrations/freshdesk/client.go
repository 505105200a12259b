package freshdesk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ShipDesk/internal/cache"
	"github.com/BearBump/ShipDesk/internal/integrations/resilient"
	"github.com/pkg/errors"
)

const (
	ModeDirect = "direct"
	ModeProxy  = "proxy"

	DefaultProxyURL = "https://corsproxy.io/?"
	defaultPerPage  = 30
	maxPerPage      = 100

	// MetaCacheKeyPrefix is shared with the helpdesk proxy, so writes through the
	// proxy invalidate what the client cached.
	MetaCacheKeyPrefix = "helpdesk:meta:"
)

var ErrNotConfigured = errors.New("helpdesk is not configured")

type Options struct {
	Domain   string
	APIKey   string
	Mode     string // "direct" | "proxy"
	ProxyURL string
	Timeout  time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	mode    string
	f       *resilient.Fetcher

	meta    cache.BytesCache
	metaTTL time.Duration
}

// New builds a client for https://<domain>. In proxy mode every request goes
// through ProxyURL with the escaped target appended.
func New(opts Options) *Client {
	mode := opts.Mode
	if mode == "" {
		mode = ModeDirect
	}
	forward := ""
	if mode == ModeProxy {
		forward = opts.ProxyURL
		if forward == "" {
			forward = DefaultProxyURL
		}
	}
	base := ""
	if d := strings.TrimSpace(opts.Domain); d != "" {
		base = "https://" + strings.TrimSuffix(d, "/")
	}
	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		mode:    mode,
		f:       resilient.New(forward, opts.Timeout),
	}
}

// WithBaseURL replaces the https://<domain> origin.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.f.WithHTTPClient(h)
	return c
}

// WithMetadataCache caches agents, groups and ticket fields bodies. ttl <= 0 means 10 minutes.
func (c *Client) WithMetadataCache(bc cache.BytesCache, ttl time.Duration) *Client {
	c.meta = bc
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	c.metaTTL = ttl
	return c
}

func (c *Client) Mode() string { return c.mode }

func (c *Client) Configured() bool { return c.baseURL != "" && c.apiKey != "" }

func (c *Client) Stats() resilient.Stats { return c.f.Stats() }

// AuthHeader is the Basic credential helpdesk expects: the API key as user name
// and a literal "X" as password.
func AuthHeader(apiKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey+":X"))
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", AuthHeader(c.apiKey))
	h.Set("Content-Type", "application/json")
	return h
}

func (c *Client) url(path string) string {
	return c.baseURL + "/api/v2" + path
}

// TestConnection performs one authenticated call and reports whether it succeeded.
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	_, err := resilient.Get[Agent](ctx, c.f, c.url("/agents/me"), c.headers())
	return err
}

func (c *Client) ticketsURL(perPage int) string {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return c.url("/tickets?per_page=" + strconv.Itoa(perPage) + "&order_by=created_at&order_type=desc")
}

// ListTickets returns the newest tickets first; perPage is clamped to [1, 100].
func (c *Client) ListTickets(ctx context.Context, perPage int) ([]Ticket, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	return resilient.Get[[]Ticket](ctx, c.f, c.ticketsURL(perPage), c.headers())
}

// TicketsOrEmpty never fails: an unreachable or unconfigured helpdesk yields an
// empty list.
func (c *Client) TicketsOrEmpty(ctx context.Context, perPage int) []Ticket {
	if !c.Configured() {
		return []Ticket{}
	}
	ts := resilient.GetWithFallback(ctx, c.f, c.ticketsURL(perPage), c.headers(), "Helpdesk-Tickets", func() []Ticket {
		return []Ticket{}
	})
	if ts == nil {
		return []Ticket{}
	}
	return ts
}

// listMetadata reads a metadata collection, through the cache when one is wired.
// The raw body is cached, the same bytes the proxy would store.
func listMetadata[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	key := MetaCacheKeyPrefix + "/api/v2" + path
	if c.meta != nil {
		b, ok, err := c.meta.Get(ctx, key)
		if err != nil {
			slog.Warn("helpdesk metadata cache get", "key", key, "error", err.Error())
		}
		if ok {
			var out []T
			if err := json.Unmarshal(b, &out); err == nil {
				return out, nil
			}
		}
	}

	raw, err := resilient.Get[json.RawMessage](ctx, c.f, c.url(path), c.headers())
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(resilient.ErrParse, err.Error())
	}
	if c.meta != nil {
		if err := c.meta.Set(ctx, key, raw, c.metaTTL); err != nil {
			slog.Warn("helpdesk metadata cache set", "key", key, "error", err.Error())
		}
	}
	return out, nil
}

func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	return listMetadata[Group](ctx, c, "/groups")
}

// GroupsOrDefault never fails: the upstream groups with the virtual MASTER and
// consolidated entries in front, or DefaultGroups when the helpdesk is unavailable.
func (c *Client) GroupsOrDefault(ctx context.Context) []Group {
	gs, err := c.ListGroups(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			slog.Warn("helpdesk groups unavailable, using defaults", "error", err.Error())
		}
		return DefaultGroups
	}
	return withVirtualGroups(gs)
}

func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	return listMetadata[Agent](ctx, c, "/agents")
}

func (c *Client) ListTicketFields(ctx context.Context) ([]TicketField, error) {
	return listMetadata[TicketField](ctx, c, "/ticket_fields")
}
