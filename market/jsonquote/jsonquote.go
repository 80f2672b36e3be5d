// Package jsonquote is a market data gateway for any HTTP endpoint returning
// JSON: the price and the dividend yield are extracted with JSONPath
// expressions.
package jsonquote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Defaults read the Yahoo chart endpoint.
const (
	DefaultPriceURL  = "https://query1.finance.yahoo.com/v8/finance/chart/{symbol}?interval=1d&range=1d"
	DefaultPricePath = "$.chart.result[0].meta.regularMarketPrice"
)

// Client implements stockbook.Gateway. {symbol} in the URLs is replaced by
// the escaped symbol. Without a YieldURL no yield is ever returned.
type Client struct {
	PriceURL  string
	PricePath string
	YieldURL  string
	YieldPath string
	HTTP      *http.Client
}

// New returns a Client reading the Yahoo chart endpoint.
func New() *Client {
	return &Client{PriceURL: DefaultPriceURL, PricePath: DefaultPricePath}
}

func (c *Client) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// get fetches the document of tmpl for symbol and returns the value at path.
func (c *Client) get(ctx context.Context, tmpl, path, symbol string) (decimal.Decimal, error) {
	addr := strings.ReplaceAll(tmpl, "{symbol}", url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stockbook)")
	req.Header.Set("Accept", "application/json")
	resp, err := c.client().Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}

	var jobj any
	if err := json.NewDecoder(resp.Body).Decode(&jobj); err != nil {
		return decimal.Zero, fmt.Errorf("error decoding %s: %w", symbol, err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error parsing %q: %q %w", symbol, path, err)
	}
	// jsonpath may return a list of one answer or the answer itself: keep
	// the first one.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, fmt.Errorf("error parsing %q: %q matches nothing", symbol, path)
		}
		jval = jlist[0]
	}
	return toDecimal(jval)
}

// toDecimal reads numbers, and numbers sent as strings with a comma as
// decimal separator.
func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		s := strings.ReplaceAll(strings.ReplaceAll(v, ",", "."), " ", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return decimal.NewFromFloat(f), nil
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", jval)
	}
}

// LastPrice returns the value at PricePath.
func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p, err := c.get(ctx, c.PriceURL, c.PricePath, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if !p.IsPositive() {
		return decimal.Zero, fmt.Errorf("empty price for %s", symbol)
	}
	return p, nil
}

// DividendYield returns the value at YieldPath, if configured.
func (c *Client) DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if c.YieldURL == "" || c.YieldPath == "" {
		return decimal.Zero, false
	}
	y, err := c.get(ctx, c.YieldURL, c.YieldPath, symbol)
	if err != nil || y.IsNegative() {
		return decimal.Zero, false
	}
	return y, true
}
