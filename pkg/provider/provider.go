// Package provider abstracts external market-data sources that serve daily
// OHLCV bars. Concrete implementations register themselves by type name and
// are built from yaml configuration.
package provider

import (
	"context"
	"time"
)

// Provider exposes daily price-bar data for a symbol.
type Provider interface {
	// DailyBars returns the daily bars for symbol within [start, end).
	// The end boundary is exclusive, matching upstream chart APIs.
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}

// Bar is one raw daily price bar as served by a provider. Fields the source
// omitted are NaN; the ingestion boundary decides what to do with them.
type Bar struct {
	Date     time.Time // trading session, truncated to a calendar day in UTC
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64 // NaN when the provider has no adjusted close
	Volume   float64 // NaN when unavailable
}
