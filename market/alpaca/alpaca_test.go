package alpaca

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrades map[string]float64

func (f fakeTrades) GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	if symbol == "DOWN" {
		return nil, errors.New("503 service unavailable")
	}
	p, ok := f[symbol]
	if !ok {
		return nil, nil
	}
	return &marketdata.Trade{Price: p}, nil
}

func TestLastPrice(t *testing.T) {
	c := &Client{md: fakeTrades{"AAPL": 190.5}}
	ctx := context.Background()

	p, err := c.LastPrice(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "190.5", p.String())

	_, err = c.LastPrice(ctx, "MSFT")
	assert.ErrorContains(t, err, "no trade found for MSFT")

	_, err = c.LastPrice(ctx, "DOWN")
	assert.Error(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.LastPrice(canceled, "AAPL")
	assert.ErrorIs(t, err, context.Canceled)

	_, ok := c.DividendYield(ctx, "AAPL")
	assert.False(t, ok)
}

func TestLastPriceIntegration(t *testing.T) {
	if os.Getenv("APCA_API_KEY_ID") == "" || testing.Short() {
		t.Skip("skipping alpaca integration test: no credentials")
	}
	p, err := New("", "", "").LastPrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, p.IsPositive())
}
