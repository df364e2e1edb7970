package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"finpipe/internal/cli"
	"finpipe/internal/config"
	"finpipe/internal/database"
	"finpipe/internal/ingest"
	"finpipe/internal/svc"
)

var (
	configFile  = flag.String("f", "etc/finpipe.yaml", "config file")
	dateFlag    = flag.String("date", "", "target trading date (YYYY-MM-DD); default is yesterday UTC")
	symbolsFlag = flag.String("symbols", "", "comma separated symbols, overrides config")
	migrateFlag = flag.Bool("migrate", false, "apply schema migrations before running")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}
	if *symbolsFlag != "" {
		cfg.Ingest.Symbols = *symbolsFlag
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(cfg) {
		log.Printf("  - %s", line)
	}

	if *migrateFlag {
		if cfg.Postgres.DSN == "" {
			log.Fatalf("[main] -migrate requires a postgres DSN")
		}
		if err := database.Migrate(cfg.Postgres.DSN); err != nil {
			log.Fatalf("[main] Migration failed: %v", err)
		}
		log.Printf("[main] Schema migrations applied")
	}

	svcCtx, err := svc.NewServiceContext(cfg)
	if err != nil {
		log.Fatalf("[main] Failed to build service context: %v", err)
	}
	if svcCtx.Job == nil {
		log.Fatalf("[main] Raw store is not configured (set Ingest.StoreURL / Ingest.StoreKey)")
	}

	var logical *time.Time
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatalf("[main] Invalid -date %q: %v", *dateFlag, err)
		}
		logical = &parsed
	}
	target := ingest.ResolveTargetDate(logical)
	runID := fmt.Sprintf("manual__%s", time.Now().UTC().Format("2006-01-02T15:04:05Z"))

	ctx := context.Background()
	if err := svcCtx.Job.Run(ctx, target); err != nil {
		svcCtx.Notifier.RunFailed(ctx, runID, target, err)
		log.Fatalf("[main] Ingestion failed for %s: %v", target.Format("2006-01-02"), err)
	}
	svcCtx.Notifier.RunSucceeded(ctx, runID, target, map[string]interface{}{
		"symbols": svcCtx.Job.Symbols(),
	})
	log.Printf("[main] Ingestion finished for %s", target.Format("2006-01-02"))
}
