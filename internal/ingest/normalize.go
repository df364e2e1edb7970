package ingest

import (
	"math"
	"time"

	"finpipe/pkg/provider"
	"finpipe/pkg/rawstore"
)

// isoDate is the canonical calendar-date layout for stored records.
const isoDate = "2006-01-02"

// Normalize converts raw provider bars into canonical price records for one
// symbol. This is the single validation boundary: rows that are missing any
// of the five price fields are dropped here and never reach storage.
//
// Rules, in order:
//   - a bar without a date is dropped (no session to key the row on)
//   - adj_close falls back to close when the provider omitted it
//   - any NaN among open/high/low/close/adj_close drops the row
//   - NaN or infinite volume is coerced to 0, never null
func Normalize(symbol string, bars []provider.Bar) []rawstore.PriceRecord {
	records := make([]rawstore.PriceRecord, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.IsZero() {
			continue
		}
		adjClose := bar.AdjClose
		if math.IsNaN(adjClose) {
			adjClose = bar.Close
		}
		if anyNaN(bar.Open, bar.High, bar.Low, bar.Close, adjClose) {
			continue
		}
		records = append(records, rawstore.PriceRecord{
			Symbol:   symbol,
			Date:     bar.Date.UTC().Format(isoDate),
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: adjClose,
			Volume:   coerceVolume(bar.Volume),
		})
	}
	return records
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func coerceVolume(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int64(v)
}

// ResolveTargetDate picks the trading session to ingest. A nil logical date
// (local or ad-hoc runs) falls back to yesterday in UTC, since today's
// session is still open.
func ResolveTargetDate(logical *time.Time) time.Time {
	if logical == nil {
		return time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	}
	return logical.UTC().Truncate(24 * time.Hour)
}
