package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, calls map[string]int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls[r.URL.Path]++
		if r.URL.Query().Get("api_token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/real-time/AAPL.US":
			fmt.Fprint(w, `{"code":"AAPL.US","timestamp":1710446400,"close":172.62,"previousClose":173}`)
		case "/real-time/BRK-B.US":
			fmt.Fprint(w, `{"code":"BRK-B.US","close":"NA"}`)
		case "/fundamentals/KO.US":
			assert.Equal(t, "Highlights::DividendYield", r.URL.Query().Get("filter"))
			fmt.Fprint(w, `0.0312`)
		case "/fundamentals/AAPL.US":
			fmt.Fprint(w, `null`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTicker(t *testing.T) {
	c := New("k", t.TempDir(), nil)
	assert.Equal(t, "AAPL.US", c.Ticker("AAPL"))
	assert.Equal(t, "BRK-B.US", c.Ticker("BRK.B"))
	c = New("k", t.TempDir(), nil, WithExchange(""))
	assert.Equal(t, "SAP.XETRA", c.Ticker("SAP.XETRA"))
}

func TestLastPrice(t *testing.T) {
	calls := map[string]int{}
	srv := newTestServer(t, calls)
	c := New("secret", t.TempDir(), nil, WithBaseURL(srv.URL+"/"))
	ctx := context.Background()

	p, err := c.LastPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "172.62", p.String())

	_, err = c.LastPrice(ctx, "BRK.B")
	assert.ErrorContains(t, err, "no price for BRK-B.US")

	_, err = c.LastPrice(ctx, "MSFT")
	assert.Error(t, err)

	_, err = New("wrong", t.TempDir(), nil, WithBaseURL(srv.URL)).LastPrice(ctx, "AAPL")
	assert.ErrorContains(t, err, "401")
}

func TestDividendYieldIsCachedDaily(t *testing.T) {
	calls := map[string]int{}
	srv := newTestServer(t, calls)
	dir := t.TempDir()
	c := New("secret", dir, nil, WithBaseURL(srv.URL))
	ctx := context.Background()

	for range 3 {
		y, ok := c.DividendYield(ctx, "KO")
		require.True(t, ok)
		assert.Equal(t, "3.12", y.String())
	}
	assert.Equal(t, 1, calls["/fundamentals/KO.US"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, ok := c.DividendYield(ctx, "AAPL")
	assert.False(t, ok, "null yield")
	_, ok = c.DividendYield(ctx, "MSFT")
	assert.False(t, ok, "not found")
}
