// Package fxrate supplies the exchange rate between the buying and the
// selling currency. Lookups never fail: when the feed is unreachable the
// configured fallback rate is returned and tagged as such.
package fxrate

import (
	"context"
	"time"

	"github.com/Simplici0/sourcing/internal/pricing"
)

// Source tells where a quoted rate came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
	SourceManual   Source = "manual"
)

// Quote is one exchange-rate reading.
type Quote struct {
	Rate      pricing.Rate `json:"rate"`
	Source    Source       `json:"source"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Provider returns the current exchange rate.
type Provider interface {
	Current(ctx context.Context) Quote
}

// Fixed always returns the same rate. It backs manual overrides and tests.
type Fixed struct {
	Rate   pricing.Rate
	Source Source
}

func (f Fixed) Current(_ context.Context) Quote {
	src := f.Source
	if src == "" {
		src = SourceManual
	}
	return Quote{Rate: f.Rate, Source: src, FetchedAt: time.Now().UTC()}
}
