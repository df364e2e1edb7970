package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"finpipe/internal/config"
	"finpipe/internal/enriched"
	"finpipe/internal/svc"
	"finpipe/pkg/riskmetrics"
)

var (
	configFile = flag.String("f", "etc/finpipe.yaml", "config file")
	symbolFlag = flag.String("symbol", "AAPL", "symbol to report on")
	fromFlag   = flag.String("from", "", "start date (YYYY-MM-DD); default is the earliest available")
	toFlag     = flag.String("to", "", "end date (YYYY-MM-DD); default is the latest available")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}

	svcCtx, err := svc.NewServiceContext(cfg)
	if err != nil {
		log.Fatalf("[main] Failed to build service context: %v", err)
	}
	if svcCtx.Enriched == nil {
		log.Fatalf("[main] Postgres is not configured (set Postgres.DSN)")
	}

	ctx := context.Background()

	from, to, err := resolveWindow(ctx, svcCtx.Enriched, *symbolFlag)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	rows, err := svcCtx.Enriched.Series(ctx, *symbolFlag, from, to)
	if err != nil {
		log.Fatalf("[main] Failed to load series: %v", err)
	}
	if len(rows) == 0 {
		log.Fatalf("[main] No data for %s between %s and %s",
			*symbolFlag, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	metrics := riskmetrics.Compute(enriched.Returns(rows))

	fmt.Printf("Risk report: %s (%s .. %s, %d observations)\n",
		*symbolFlag, from.Format("2006-01-02"), to.Format("2006-01-02"), len(rows))
	fmt.Printf("  Annualized volatility: %s\n", percent(metrics.AnnualizedVolatility))
	fmt.Printf("  Annualized Sharpe:     %s\n", ratio(metrics.AnnualizedSharpeRatio))
	fmt.Printf("  Max drawdown:          %s\n", percent(metrics.MaxDrawdown))
}

// resolveWindow fills unset -from/-to flags with the symbol's available
// bounds.
func resolveWindow(ctx context.Context, reader *enriched.Reader, symbol string) (time.Time, time.Time, error) {
	var from, to time.Time

	if *fromFlag == "" || *toFlag == "" {
		min, max, ok, err := reader.DateBounds(ctx, symbol)
		if err != nil {
			return from, to, fmt.Errorf("query date bounds: %w", err)
		}
		if !ok {
			return from, to, fmt.Errorf("no data for symbol %s", symbol)
		}
		from, to = min, max
	}

	var err error
	if *fromFlag != "" {
		if from, err = time.Parse("2006-01-02", *fromFlag); err != nil {
			return from, to, fmt.Errorf("invalid -from %q: %w", *fromFlag, err)
		}
	}
	if *toFlag != "" {
		if to, err = time.Parse("2006-01-02", *toFlag); err != nil {
			return from, to, fmt.Errorf("invalid -to %q: %w", *toFlag, err)
		}
	}
	return from, to, nil
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
