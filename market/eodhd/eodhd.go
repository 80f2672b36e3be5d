// Package eodhd is a market data gateway on top of the EODHD API.
//
// Prices come from the real-time endpoint, dividend yields from the
// fundamentals endpoint, whose responses are cached on disk for the day.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/stockbook/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBaseURL is the EODHD API root.
const DefaultBaseURL = "https://eodhd.com/api"

// DefaultExchange is appended to plain symbols to form EODHD tickers.
const DefaultExchange = "US"

// Client implements stockbook.Gateway.
type Client struct {
	apiKey   string
	baseURL  string
	exchange string
	http     *http.Client // real-time quotes, never cached
	cached   *http.Client // fundamentals, cached daily
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL replaces DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithExchange sets the exchange code of plain symbols. An empty exchange
// sends symbols as they are.
func WithExchange(code string) Option { return func(c *Client) { c.exchange = code } }

// WithHTTPClient sets the client used for real-time quotes.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// New returns a Client with the given API key. Fundamentals are cached in
// cacheDir, or in the system temporary directory if empty.
func New(apiKey, cacheDir string, log *zap.SugaredLogger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "stockbook-eodhd")
	}
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		exchange: DefaultExchange,
		http:     new(http.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cached = &http.Client{Transport: &diskCache{
		base:   transport(c.http),
		dir:    cacheDir,
		period: date.Daily,
		today:  date.Today,
		log:    log,
	}}
	return c
}

func transport(h *http.Client) http.RoundTripper {
	if h.Transport != nil {
		return h.Transport
	}
	return http.DefaultTransport
}

// Ticker returns the EODHD ticker of symbol: "BRK.B" is "BRK-B.US".
func (c *Client) Ticker(symbol string) string {
	if c.exchange == "" {
		return symbol
	}
	return strings.ReplaceAll(symbol, ".", "-") + "." + c.exchange
}

func (c *Client) url(endpoint, symbol string, q url.Values) string {
	q.Set("api_token", c.apiKey)
	q.Set("fmt", "json")
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, endpoint, url.PathEscape(c.Ticker(symbol)), q.Encode())
}

// LastPrice returns the latest close of the real-time endpoint.
func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {"code":"AAPL.US","timestamp":1710446400,"gmtoffset":0,"open":172.91,
	//  "high":173.185,"low":170.76,"close":172.62,"volume":71106250,
	//  "previousClose":173,"change":-0.38,"change_p":-0.2197}
	type Info struct {
		Code  string `json:"code"`
		Close any    `json:"close"` // "NA" out of market data
	}
	var info Info
	if err := jwget(ctx, c.http, c.url("real-time", symbol, url.Values{}), &info); err != nil {
		return decimal.Zero, err
	}
	var price decimal.Decimal
	switch v := info.Close.(type) {
	case float64:
		price = decimal.NewFromFloat(v)
	default:
		return decimal.Zero, fmt.Errorf("no price for %s: close is %v", c.Ticker(symbol), v)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("no price for %s: close is %s", c.Ticker(symbol), price)
	}
	return price, nil
}

// DividendYield returns the yield in percent, from the fundamentals
// highlights.
func (c *Client) DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	// https://eodhd.com/api/fundamentals/KO.US?api_token=demo&filter=Highlights::DividendYield
	// 0.0312
	var yield decimal.NullDecimal
	q := url.Values{"filter": {"Highlights::DividendYield"}}
	if err := jwget(ctx, c.cached, c.url("fundamentals", symbol, q), &yield); err != nil {
		return decimal.Zero, false
	}
	if !yield.Valid || yield.Decimal.IsNegative() {
		return decimal.Zero, false
	}
	return yield.Decimal.Shift(2), true
}
