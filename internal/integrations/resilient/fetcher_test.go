package resilient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func TestClassify(t *testing.T) {
	require.NoError(t, Classify(200))
	require.NoError(t, Classify(204))
	require.ErrorIs(t, Classify(401), ErrAuthFailed)
	require.ErrorIs(t, Classify(403), ErrAuthFailed)
	require.ErrorIs(t, Classify(404), ErrNotFound)
	require.ErrorIs(t, Classify(429), ErrRateLimited)
	require.ErrorIs(t, Classify(500), ErrUnexpectedStatus)
	require.ErrorIs(t, Classify(302), ErrUnexpectedStatus)
}

func TestGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Basic abc", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"name":"diesel"}`))
	}))
	defer srv.Close()

	f := New("", time.Second)
	h := http.Header{}
	h.Set("Authorization", "Basic abc")

	out, err := Get[payload](context.Background(), f, srv.URL+"/x", h)
	require.NoError(t, err)
	require.Equal(t, "diesel", out.Name)
}

func TestGet_StatusTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, ErrAuthFailed},
		{403, ErrAuthFailed},
		{404, ErrNotFound},
		{429, ErrRateLimited},
		{502, ErrUnexpectedStatus},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := Get[payload](context.Background(), New("", time.Second), srv.URL, nil)
		srv.Close()
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}

func TestGet_ParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := Get[payload](context.Background(), New("", time.Second), srv.URL, nil)
	require.ErrorIs(t, err, ErrParse)
	require.Equal(t, "parse_failure", Kind(err))
}

func TestGet_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := Get[payload](context.Background(), New("", time.Second), addr, nil)
	require.ErrorIs(t, err, ErrNetwork)
	require.Equal(t, "network_failure", Kind(err))
}

func TestGet_ThroughForwardURL(t *testing.T) {
	target := "https://storeapi.parcelninja.com/api/v1/outbounds/?storeId=7b0f&pageSize=10"
	var seen string
	fwd := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = url.QueryUnescape(r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"name":"via-forward"}`))
	}))
	defer fwd.Close()

	f := New(fwd.URL+"/?", time.Second)
	out, err := Get[payload](context.Background(), f, target, nil)
	require.NoError(t, err)
	require.Equal(t, "via-forward", out.Name)
	require.Equal(t, target, seen)
}

func TestGetWithFallback_429ReturnsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New("", time.Second)
	out := GetWithFallback(context.Background(), f, srv.URL, nil, "outbounds Diesel", func() []payload {
		return []payload{}
	})
	require.NotNil(t, out)
	require.Empty(t, out)

	st := f.Stats()
	require.Equal(t, int64(1), st.TotalRequests)
	require.Equal(t, int64(1), st.TotalFallbacks)
	require.Equal(t, int64(1), st.Failures["rate_limited"])
	require.Equal(t, "outbounds Diesel", st.LastErrorContext)
	require.Equal(t, "rate_limited", st.LastErrorKind)
	require.NotNil(t, st.LastErrorAt)
}

func TestGetWithFallback_NeverFails(t *testing.T) {
	bodies := []struct {
		status int
		body   string
	}{
		{200, `{"name":"ok"}`},
		{200, `not json`},
		{500, `{"name":"ignored"}`},
		{401, ``},
	}
	for _, b := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(b.status)
			_, _ = w.Write([]byte(b.body))
		}))
		out := GetWithFallback(context.Background(), New("", time.Second), srv.URL, nil, "probe", func() payload {
			return payload{Name: "fallback"}
		})
		srv.Close()
		if b.status == 200 && b.body == `{"name":"ok"}` {
			require.Equal(t, "ok", out.Name)
			continue
		}
		require.Equal(t, "fallback", out.Name, "status %d body %q", b.status, b.body)
	}
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, 0, l.err
	}
	if l.allow {
		return true, 1, nil
	}
	return false, limit + 1, nil
}

func TestGet_LocalRateLimitDenied(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer srv.Close()

	rl := &fakeLimiter{allow: false}
	f := New("", time.Second).WithRateLimit(rl, 5)

	_, err := Get[payload](context.Background(), f, srv.URL+"/outbounds", nil)
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, int64(0), hits.Load())
	require.Len(t, rl.keys, 1)

	u, _ := url.Parse(srv.URL)
	require.Equal(t, "rl:upstream:"+u.Host, rl.keys[0])
}

func TestGet_RateLimiterErrorFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer srv.Close()

	f := New("", time.Second).WithRateLimit(&fakeLimiter{err: errors.New("redis down")}, 5)
	out, err := Get[payload](context.Background(), f, srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, "x", out.Name)
}
