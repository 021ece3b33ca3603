package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stockwatch/internal/feature/prices/domain/entity"
)

// Chain queries providers in priority order until one yields data.
// Results from different sources are never merged: the first provider
// to return a non-empty result wins and later providers are not asked.
type Chain struct {
	configured []Provider // full list as given, kept for Rebuild and health reporting
	active     []Provider // availability-filtered subset actually queried
}

// NewChain builds a chain from providers in priority order. Sources
// reporting unavailable (e.g. a missing API key) are filtered out up
// front so a fetch never spends an attempt on them.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{configured: providers}
	c.Rebuild()
	return c
}

// Rebuild re-evaluates the availability of every configured provider.
// Availability is otherwise fixed for the lifetime of the chain, so
// call this after configuration changes that enable or disable sources.
func (c *Chain) Rebuild() {
	active := make([]Provider, 0, len(c.configured))
	for _, p := range c.configured {
		if p.Available() {
			active = append(active, p)
		} else {
			slog.Info("provider unavailable, excluded from chain", "provider", p.Name())
		}
	}
	c.active = active
}

// Configured returns every provider the chain was built with, in
// priority order, including currently unavailable ones.
func (c *Chain) Configured() []Provider { return c.configured }

// Active returns the providers that passed the availability check, in
// priority order.
func (c *Chain) Active() []Provider { return c.active }

// Names lists the names of the active providers in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.active))
	for i, p := range c.active {
		names[i] = p.Name()
	}
	return names
}

// FetchWithFallback asks each active provider in turn and returns the
// first non-empty result as-is. A provider error or an empty result
// moves on to the next source. When no provider yields data the chain
// fails with an aggregate error naming every source tried and its
// outcome, wrapping the individual failures.
func (c *Chain) FetchWithFallback(ctx context.Context, symbol string, start, end time.Time) ([]entity.PriceRecord, error) {
	if len(c.active) == 0 {
		return nil, NewError("chain", fmt.Sprintf("no providers available for %s", symbol), nil)
	}

	var (
		outcomes []string
		causes   []error
	)
	for _, p := range c.active {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := p.FetchPrices(ctx, symbol, start, end)
		if err != nil {
			slog.Warn("provider failed, falling back", "provider", p.Name(), "symbol", symbol, "error", err)
			outcomes = append(outcomes, p.Name()+": "+err.Error())
			causes = append(causes, err)
			continue
		}
		if len(records) == 0 {
			slog.Info("provider returned no data, falling back", "provider", p.Name(), "symbol", symbol)
			outcomes = append(outcomes, p.Name()+": no data")
			continue
		}
		return records, nil
	}

	msg := fmt.Sprintf("all providers failed for %s [%s]", symbol, strings.Join(outcomes, "; "))
	return nil, NewError("chain", msg, errors.Join(causes...))
}
