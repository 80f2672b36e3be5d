package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/market"
	"github.com/etnz/stockbook/market/alpaca"
	"github.com/etnz/stockbook/market/eodhd"
	"github.com/etnz/stockbook/market/jsonquote"
	"github.com/go-redis/redis/v8"
)

// newGateway chains the configured providers, each bounded by the market
// timeout, behind the optional Redis quote cache.
func (a *app) newGateway() (stockbook.Gateway, error) {
	cfg := a.cfg.Market
	var chain market.Fallback
	for _, name := range a.cfg.Providers() {
		var g stockbook.Gateway
		switch name {
		case "eodhd":
			if cfg.EODHD.APIKey == "" {
				a.log.Warn("eodhd provider skipped: no API key")
				continue
			}
			cacheDir := cfg.EODHD.CacheDir
			if cacheDir == "" {
				cacheDir = filepath.Join(a.cfg.DataDir, "cache", "eodhd")
			}
			var opts []eodhd.Option
			if cfg.EODHD.BaseURL != "" {
				opts = append(opts, eodhd.WithBaseURL(cfg.EODHD.BaseURL))
			}
			if cfg.EODHD.Exchange != "" {
				opts = append(opts, eodhd.WithExchange(cfg.EODHD.Exchange))
			}
			g = eodhd.New(cfg.EODHD.APIKey, a.cfg.Path(cacheDir), a.log, opts...)
		case "alpaca":
			if cfg.Alpaca.APIKey == "" {
				a.log.Warn("alpaca provider skipped: no API key")
				continue
			}
			g = alpaca.New(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		case "jsonquote":
			q := jsonquote.New()
			if cfg.JSONQuote.PriceURL != "" {
				q.PriceURL = cfg.JSONQuote.PriceURL
			}
			if cfg.JSONQuote.PricePath != "" {
				q.PricePath = cfg.JSONQuote.PricePath
			}
			q.YieldURL = cfg.JSONQuote.YieldURL
			q.YieldPath = cfg.JSONQuote.YieldPath
			g = q
		default:
			return nil, fmt.Errorf("unknown market data provider %q", name)
		}
		a.log.Debugw("market data provider", "name", name)
		chain = append(chain, market.WithTimeout(g, cfg.Timeout))
	}

	if cfg.Redis.Addr == "" {
		return chain, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	return market.NewRedisCache(client, chain, cfg.Redis.TTL, a.log), nil
}
