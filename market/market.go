// Package market decorates market data gateways: call timeouts, a Redis
// quote cache and fallback chains.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/stockbook"
	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a single gateway call.
const DefaultTimeout = 10 * time.Second

// timeout bounds each call to next, even when next ignores its context.
type timeout struct {
	next stockbook.Gateway
	d    time.Duration
}

// WithTimeout returns a gateway whose calls fail with
// context.DeadlineExceeded after d.
func WithTimeout(next stockbook.Gateway, d time.Duration) stockbook.Gateway {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &timeout{next: next, d: d}
}

type priceResult struct {
	price decimal.Decimal
	err   error
}

func (t *timeout) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan priceResult, 1)
	go func() {
		p, err := t.next.LastPrice(ctx, symbol)
		done <- priceResult{p, err}
	}()
	select {
	case r := <-done:
		return r.price, r.err
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("price of %s: %w", symbol, ctx.Err())
	}
}

type yieldResult struct {
	yield decimal.Decimal
	ok    bool
}

func (t *timeout) DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan yieldResult, 1)
	go func() {
		y, ok := t.next.DividendYield(ctx, symbol)
		done <- yieldResult{y, ok}
	}()
	select {
	case r := <-done:
		return r.yield, r.ok
	case <-ctx.Done():
		return decimal.Zero, false
	}
}

// Fallback asks each gateway in turn until one answers.
type Fallback []stockbook.Gateway

func (f Fallback) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if len(f) == 0 {
		return decimal.Zero, stockbook.ErrNoGateway
	}
	var errs []error
	for _, g := range f {
		p, err := g.LastPrice(ctx, symbol)
		if err == nil && p.IsPositive() {
			return p, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: %s", stockbook.ErrNonPositivePrice, p)
		}
		errs = append(errs, err)
	}
	return decimal.Zero, errors.Join(errs...)
}

func (f Fallback) DividendYield(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	for _, g := range f {
		if y, ok := g.DividendYield(ctx, symbol); ok {
			return y, true
		}
	}
	return decimal.Zero, false
}
