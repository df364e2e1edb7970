// Package enriched reads the fact_prices_enriched table produced by the
// downstream transformation stage. The pipeline only consumes this table;
// it never writes it.
package enriched

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cacheutil "finpipe/internal/cache"
)

const table = "public.fact_prices_enriched"

// Row is one enriched observation for a symbol. The return and moving
// average columns are null until enough history exists.
type Row struct {
	Date           time.Time       `db:"date"`
	Close          float64         `db:"close"`
	DailyReturnPct sql.NullFloat64 `db:"daily_return_pct"`
	MA7            sql.NullFloat64 `db:"ma_7d"`
	MA30           sql.NullFloat64 `db:"ma_30d"`
}

// Reader loads enriched rows from Postgres, caching query responses via the
// go-zero cache layer when one is wired.
type Reader struct {
	conn  sqlx.SqlConn
	cache cache.Cache
	ttls  cacheutil.TTLSet
}

// NewReader constructs a Reader. The cache is optional; a nil cache reads
// straight through to Postgres.
func NewReader(conn sqlx.SqlConn, cache cache.Cache, ttls cacheutil.TTLSet) *Reader {
	return &Reader{conn: conn, cache: cache, ttls: ttls}
}

func (r *Reader) getCache(ctx context.Context, key string, v interface{}) bool {
	if r.cache == nil {
		return false
	}
	if err := r.cache.GetCtx(ctx, key, v); err != nil {
		if !r.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("enriched: get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func (r *Reader) setCache(ctx context.Context, key string, expire time.Duration, v interface{}) {
	if r.cache == nil || expire <= 0 {
		return
	}
	if err := r.cache.SetWithExpireCtx(ctx, key, v, expire); err != nil {
		logx.WithContext(ctx).Errorf("enriched: set cache %s: %v", key, err)
	}
}

// Symbols returns the distinct symbols available in the enriched table.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	key := cacheutil.EnrichedSymbolsKey()
	var cached []string
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	q := fmt.Sprintf(`SELECT DISTINCT symbol FROM %s ORDER BY symbol`, table)
	var symbols []string
	if err := r.conn.QueryRowsCtx(ctx, &symbols, q); err != nil {
		return nil, fmt.Errorf("enriched: query symbols: %w", err)
	}
	r.setCache(ctx, key, cacheutil.EnrichedSymbolsTTL(r.ttls), symbols)
	return symbols, nil
}

// DateBounds returns the available date range for a symbol. ok is false
// when the symbol has no rows.
func (r *Reader) DateBounds(ctx context.Context, symbol string) (min, max time.Time, ok bool, err error) {
	q := fmt.Sprintf(`SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM %s WHERE symbol = $1`, table)
	var bounds struct {
		MinDate sql.NullTime `db:"min_date"`
		MaxDate sql.NullTime `db:"max_date"`
	}
	if err := r.conn.QueryRowCtx(ctx, &bounds, q, symbol); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("enriched: query date bounds: %w", err)
	}
	if !bounds.MinDate.Valid || !bounds.MaxDate.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return bounds.MinDate.Time, bounds.MaxDate.Time, true, nil
}

// Series returns the enriched rows for a symbol between from and to,
// inclusive on both ends, ordered by date.
func (r *Reader) Series(ctx context.Context, symbol string, from, to time.Time) ([]Row, error) {
	key := cacheutil.EnrichedSeriesKey(symbol, from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []Row
	if r.getCache(ctx, key, &cached) {
		return cached, nil
	}

	q := fmt.Sprintf(`
SELECT date, close, daily_return_pct, ma_7d, ma_30d
FROM %s
WHERE symbol = $1 AND date BETWEEN $2 AND $3
ORDER BY date`, table)
	var rows []Row
	if err := r.conn.QueryRowsCtx(ctx, &rows, q, symbol, from, to); err != nil {
		return nil, fmt.Errorf("enriched: query series: %w", err)
	}
	r.setCache(ctx, key, cacheutil.EnrichedSeriesTTL(r.ttls), rows)
	return rows, nil
}

// Returns extracts the daily percentage returns from a series, encoding
// null entries as NaN so the risk metrics layer can drop them.
func Returns(rows []Row) []float64 {
	returns := make([]float64, len(rows))
	for i, row := range rows {
		if row.DailyReturnPct.Valid {
			returns[i] = row.DailyReturnPct.Float64
		} else {
			returns[i] = math.NaN()
		}
	}
	return returns
}
