// Package provider defines the abstraction over upstream market data
// vendors, plus the fallback chain and retry machinery that turn a set
// of unreliable sources into one dependable fetch path.
package provider

import (
	"context"
	"fmt"
	"time"

	"stockwatch/internal/feature/prices/domain/entity"
)

// Provider is a single upstream source of daily price history.
type Provider interface {
	// Name identifies the provider in logs, alerts and record Source fields.
	Name() string

	// Available reports whether the provider can be used at all, based
	// on configuration alone (e.g. an API key being set). It must be
	// cheap and must never perform network I/O.
	Available() bool

	// FetchPrices returns daily records for symbol between start and end
	// inclusive. An empty slice with a nil error is a valid outcome: the
	// source answered but had nothing for the window (unknown symbol,
	// market holidays). Callers must not treat it as a failure.
	FetchPrices(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error)
}

// Error wraps a failure from a single provider so callers always know
// which vendor misbehaved and why.
type Error struct {
	Provider string // provider name as reported by Name()
	Message  string // what went wrong, in provider terms
	Err      error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error for the named provider.
func NewError(name, message string, err error) *Error {
	return &Error{Provider: name, Message: message, Err: err}
}
