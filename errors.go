package stockbook

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the accounting engine and the persistence layer.
//
// Precondition failures are returned as typed errors carrying the values
// involved; they match their sentinel with errors.Is.
var (
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrNoGateway          = errors.New("no market data gateway configured")
	ErrNonPositivePrice   = errors.New("non positive price")

	// ErrStorageWrite is reported when at least one storage location could
	// not be written. It never rolls back the in-memory ledger.
	ErrStorageWrite = errors.New("storage write failure")
	// ErrStorageIntegrity is reported when a candidate snapshot fails the
	// shape check on load.
	ErrStorageIntegrity = errors.New("storage integrity failure")
)

// InsufficientCashError reports a buy or a withdrawal that needs more cash
// than the ledger holds.
type InsufficientCashError struct {
	Required  Money
	Available Money
}

func (e *InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash: required %s, available %s", e.Required, e.Available)
}

func (e *InsufficientCashError) Is(target error) bool { return target == ErrInsufficientCash }

// InsufficientSharesError reports a sell of more shares than held.
type InsufficientSharesError struct {
	Symbol    string
	Held      Quantity
	Requested Quantity
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: held %s, requested %s", e.Symbol, e.Held, e.Requested)
}

func (e *InsufficientSharesError) Is(target error) bool { return target == ErrInsufficientShares }

// PriceUnavailableError reports a market data gateway failure for a symbol.
type PriceUnavailableError struct {
	Symbol string
	Err    error
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("price unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *PriceUnavailableError) Is(target error) bool { return target == ErrPriceUnavailable }
func (e *PriceUnavailableError) Unwrap() error        { return e.Err }
