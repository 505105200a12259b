package parcelninja

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BearBump/ShipDesk/internal/integrations/resilient"
	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/normalize"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL = "https://storeapi.parcelninja.com/api/v1"

	defaultPageSize     = 10
	defaultLookbackDays = 30

	// listing sort: column 4 (create date), newest first
	sortColumn = "4"
	sortOrder  = "desc"
)

type Client struct {
	baseURL string
	stores  []models.StoreCredential
	f       *resilient.Fetcher

	pageSize     int
	lookbackDays int
	// 0: one calendar year back
	searchLookbackDays int

	now func() time.Time
}

func New(baseURL string, stores []models.StoreCredential, f *resilient.Fetcher) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if f == nil {
		f = resilient.New("", 0)
	}
	return &Client{
		baseURL:      baseURL,
		stores:       stores,
		f:            f,
		pageSize:     defaultPageSize,
		lookbackDays: defaultLookbackDays,
		now:          time.Now,
	}
}

// WithListing overrides the bulk listing window. Non-positive values keep defaults.
func (c *Client) WithListing(pageSize, lookbackDays int) *Client {
	if pageSize > 0 {
		c.pageSize = pageSize
	}
	if lookbackDays > 0 {
		c.lookbackDays = lookbackDays
	}
	return c
}

// WithSearchLookback replaces the one-year search window with a fixed number of
// days. Non-positive values keep the calendar year.
func (c *Client) WithSearchLookback(days int) *Client {
	if days > 0 {
		c.searchLookbackDays = days
	}
	return c
}

func (c *Client) Stores() []models.StoreCredential {
	out := make([]models.StoreCredential, len(c.stores))
	copy(out, c.stores)
	return out
}

func (c *Client) Stats() resilient.Stats { return c.f.Stats() }

func authHeaders(store models.StoreCredential) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(store.Username+":"+store.Password)))
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	return h
}

func (c *Client) listingURL(resource string, store models.StoreCredential) string {
	now := c.now()
	q := url.Values{}
	q.Set("startDate", normalize.APIDateParam(now.AddDate(0, 0, -c.lookbackDays)))
	q.Set("endDate", normalize.APIDateParam(now))
	q.Set("storeId", store.StoreID)
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("col", sortColumn)
	q.Set("colOrder", sortOrder)
	return c.baseURL + "/" + resource + "?" + q.Encode()
}

func (c *Client) searchStart(now time.Time) time.Time {
	if c.searchLookbackDays > 0 {
		return now.AddDate(0, 0, -c.searchLookbackDays)
	}
	return now.AddDate(-1, 0, 0)
}

func (c *Client) searchURL(resource string, store models.StoreCredential, term string) string {
	now := c.now()
	q := url.Values{}
	q.Set("startDate", normalize.APIDateParam(c.searchStart(now)))
	q.Set("endDate", normalize.APIDateParam(now))
	q.Set("storeId", store.StoreID)
	q.Set("filter", term)
	q.Set("pageSize", "1")
	return c.baseURL + "/" + resource + "?" + q.Encode()
}

func (c *Client) detailURL(resource string, id FlexID) string {
	return c.baseURL + "/" + resource + "/" + url.PathEscape(id.String()) + "/events"
}

// FetchStoreOutbounds lists one store's recent outbounds and enriches each summary
// with its detail record. A failed listing yields an empty slice; a failed detail
// keeps the summary.
func (c *Client) FetchStoreOutbounds(ctx context.Context, store models.StoreCredential) []models.OutboundShipment {
	h := authHeaders(store)
	summaries := getListing[Outbound](ctx, c, c.listingURL("outbounds", store), h, "Outbounds-"+store.Name)
	if len(summaries) == 0 {
		return []models.OutboundShipment{}
	}

	out := make([]models.OutboundShipment, len(summaries))
	var g errgroup.Group
	for i, summary := range summaries {
		g.Go(func() error {
			detail := getDetail(ctx, c, c.detailURL("outbounds", summary.ID), h, "Detail-"+summary.ID.String(), summary)
			out[i] = MapOutbound(detail, store.Name)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) FetchStoreInbounds(ctx context.Context, store models.StoreCredential) []models.InboundReturn {
	h := authHeaders(store)
	summaries := getListing[Inbound](ctx, c, c.listingURL("inbounds", store), h, "Inbounds-"+store.Name)
	if len(summaries) == 0 {
		return []models.InboundReturn{}
	}

	out := make([]models.InboundReturn, len(summaries))
	var g errgroup.Group
	for i, summary := range summaries {
		g.Go(func() error {
			detail := getDetail(ctx, c, c.detailURL("inbounds", summary.ID), h, "InboundDetail-"+summary.ID.String(), summary)
			out[i] = MapInbound(detail, store.Name)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func getListing[T any](ctx context.Context, c *Client, target string, h http.Header, tag string) []T {
	return resilient.GetWithFallback(ctx, c.f, target, h, tag, func() listing[T] { return listing[T]{} }).Items
}

// getDetail falls back to the summary record when the detail call fails.
func getDetail[T any](ctx context.Context, c *Client, target string, h http.Header, tag string, summary T) T {
	return resilient.GetWithFallback(ctx, c.f, target, h, tag, func() T { return summary })
}
