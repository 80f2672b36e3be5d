// Package alpaca is a market data gateway on top of the Alpaca market data
// API. It only knows prices: Alpaca publishes no dividend yield.
package alpaca

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// tradeSource is the part of marketdata.Client used here.
type tradeSource interface {
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// Client implements stockbook.Gateway.
type Client struct {
	md   tradeSource
	feed marketdata.Feed
}

// New returns a Client. Empty credentials fall back to the APCA_API_KEY_ID
// and APCA_API_SECRET_KEY environment variables; an empty baseURL is the
// public data endpoint.
func New(apiKey, apiSecret, baseURL string) *Client {
	return &Client{
		md: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		feed: marketdata.IEX, // free plan
	}
}

// LastPrice returns the price of the latest trade.
func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	trade, err := c.md.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{Feed: c.feed})
	if err != nil {
		return decimal.Zero, err
	}
	if trade == nil {
		return decimal.Zero, fmt.Errorf("no trade found for %s", symbol)
	}
	return decimal.NewFromFloat(trade.Price), nil
}

func (c *Client) DividendYield(context.Context, string) (decimal.Decimal, bool) {
	return decimal.Zero, false
}
