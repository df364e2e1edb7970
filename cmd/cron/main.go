package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"finpipe/internal/cli"
	"finpipe/internal/config"
	"finpipe/internal/database"
	"finpipe/internal/ingest"
	"finpipe/internal/svc"
	"finpipe/pkg/journal"
)

const (
	ingestInterval  = 24 * time.Hour  // One pass per trading day
	runTimeout      = 5 * time.Minute // Timeout for a full ingestion pass
	shutdownTimeout = 10 * time.Second
)

var configFile = flag.String("f", "etc/finpipe.yaml", "config file")

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting ingestion scheduler...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(cfg) {
		log.Printf("  - %s", line)
	}

	if cfg.Postgres.DSN != "" {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runIngestLoop(ctx, svcCtx)
	}()

	log.Println("[main] Scheduler started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping tasks...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] All tasks stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Scheduler stopped")
}

// runIngestLoop runs the daily ingestion on a schedule. The first pass runs
// immediately on startup so a restart backfills yesterday without waiting a
// day.
func runIngestLoop(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(ingestInterval)
	defer ticker.Stop()

	runOnce(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[ingest] Stopping ingestion loop")
			return
		case <-ticker.C:
			runOnce(ctx, svcCtx)
		}
	}
}

// runOnce ingests the previous UTC day and reports the outcome. A failed
// pass is logged and reported but never stops the loop; the next tick
// retries with a fresh target date.
func runOnce(parentCtx context.Context, svcCtx *svc.ServiceContext) {
	if parentCtx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parentCtx, runTimeout)
	defer cancel()

	target := ingest.ResolveTargetDate(nil)
	runID := fmt.Sprintf("scheduled__%s", target.Format("2006-01-02"))

	start := time.Now()
	err := svcCtx.Job.Run(ctx, target)
	elapsed := time.Since(start)

	if err != nil {
		log.Printf("[ingest] [ERROR] %s: %v, took %dms", target.Format("2006-01-02"), err, elapsed.Milliseconds())
		svcCtx.Notifier.RunFailed(parentCtx, runID, target, err)
		writeJournal(svcCtx, runID, target, elapsed, err)
		return
	}

	log.Printf("[ingest] [OK] %s, took %dms", target.Format("2006-01-02"), elapsed.Milliseconds())
	svcCtx.Notifier.RunSucceeded(parentCtx, runID, target, map[string]interface{}{
		"symbols":     svcCtx.Job.Symbols(),
		"duration_ms": elapsed.Milliseconds(),
	})
	writeJournal(svcCtx, runID, target, elapsed, nil)
}

// writeJournal appends the local audit record when a journal dir is
// configured. Journal failures only warrant a log line.
func writeJournal(svcCtx *svc.ServiceContext, runID string, target time.Time, elapsed time.Duration, runErr error) {
	if svcCtx.Journal == nil {
		return
	}

	rec := &journal.RunRecord{
		RunID:      runID,
		TargetDate: target.Format("2006-01-02"),
		Symbols:    svcCtx.Job.Symbols(),
		DurationMS: elapsed.Milliseconds(),
		Success:    runErr == nil,
	}
	if runErr != nil {
		rec.ErrorMessage = runErr.Error()
	}
	if _, err := svcCtx.Journal.WriteRun(rec); err != nil {
		log.Printf("[ingest] [WARN] journal write failed: %v", err)
	}
}
