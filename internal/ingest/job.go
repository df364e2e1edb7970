// Package ingest implements the daily price ingestion job: fetch one day of
// OHLCV per symbol, normalize, and upsert the batch into the raw store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finpipe/pkg/provider"
	"finpipe/pkg/rawstore"
)

// Store is the write side of the raw-prices store.
type Store interface {
	UpsertPrices(ctx context.Context, records []rawstore.PriceRecord) error
}

// Job ingests one trading day of prices for a fixed symbol list. A Job has
// no mutable state of its own: every Run is independent given its target
// date, so re-runs for the same date are idempotent.
type Job struct {
	provider provider.Provider
	store    Store
	symbols  []string
}

// NewJob wires an ingestion job. The symbol list must already be resolved
// (see ParseSymbols); an empty list is replaced by the built-in default.
func NewJob(p provider.Provider, store Store, symbols []string) *Job {
	if len(symbols) == 0 {
		symbols = []string{DefaultSymbol}
	}
	return &Job{provider: p, store: store, symbols: symbols}
}

// Symbols returns the symbol list the job operates on.
func (j *Job) Symbols() []string {
	return j.symbols
}

// outcome is the typed per-symbol fetch result. A symbol either contributes
// records or reports why it contributed nothing; failures never abort the
// loop over the remaining symbols.
type outcome struct {
	records []rawstore.PriceRecord
	skipped string // non-empty reason when the symbol yielded no rows
}

func skip(reason string, args ...interface{}) outcome {
	return outcome{skipped: fmt.Sprintf(reason, args...)}
}

// Run ingests the target trading date for every configured symbol and
// upserts the aggregate batch. Per-symbol data errors are logged and
// skipped; an empty aggregate batch ends the run successfully with no
// write. Store errors are fatal and propagate to the caller, whose
// scheduler owns retries.
func (j *Job) Run(ctx context.Context, targetDate time.Time) error {
	logger := logx.WithContext(ctx)

	start := targetDate.UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 1) // exclusive end boundary
	logger.Infof("ingest: target date %s, symbols %v", start.Format(isoDate), j.symbols)

	batch := make([]rawstore.PriceRecord, 0, len(j.symbols))
	for _, symbol := range j.symbols {
		result := j.fetchSymbol(ctx, symbol, start, end)
		if result.skipped != "" {
			logger.Infof("ingest: %s %s: no data (%s)", symbol, start.Format(isoDate), result.skipped)
			continue
		}
		logger.Infof("ingest: %s %s: %d row(s)", symbol, start.Format(isoDate), len(result.records))
		batch = append(batch, result.records...)
	}

	if len(batch) == 0 {
		// Holidays and provider gaps are expected; nothing to write is a
		// successful run.
		logger.Infof("ingest: no data for any symbol on %s, skipping store write", start.Format(isoDate))
		return nil
	}

	logger.Infof("ingest: upserting batch of %d record(s)", len(batch))
	if err := j.store.UpsertPrices(ctx, batch); err != nil {
		return fmt.Errorf("ingest: upsert batch: %w", err)
	}
	return nil
}

// fetchSymbol fetches and normalizes one symbol's session. All failure
// modes collapse into a skip outcome; only the store write can fail a run.
func (j *Job) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) outcome {
	bars, err := j.provider.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return skip("fetch failed: %v", err)
	}
	if len(bars) == 0 {
		return skip("empty result")
	}
	records := Normalize(symbol, bars)
	if len(records) == 0 {
		return skip("all %d row(s) dropped at normalization", len(bars))
	}
	return outcome{records: records}
}
