package svc

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/core/syncx"

	cacheutil "finpipe/internal/cache"
	"finpipe/internal/config"
	"finpipe/internal/enriched"
	"finpipe/internal/ingest"
	"finpipe/internal/notify"
	"finpipe/pkg/journal"
	providerpkg "finpipe/pkg/provider"
	_ "finpipe/pkg/provider/yahoo" // register yahoo provider
	"finpipe/pkg/rawstore"
)

// ServiceContext wires the pipeline's shared dependencies from config.
// Optional subsystems (Postgres, Redis, raw store) stay nil when not
// configured; each entrypoint checks for what it needs.
type ServiceContext struct {
	Config *config.Config

	Providers       map[string]providerpkg.Provider
	DefaultProvider providerpkg.Provider

	RawStore *rawstore.Client
	Job      *ingest.Job

	DBConn   sqlx.SqlConn
	Cache    cache.Cache
	Enriched *enriched.Reader
	Notifier *notify.Notifier
	Journal  *journal.Writer
}

func NewServiceContext(c *config.Config) (*ServiceContext, error) {
	svc := &ServiceContext{Config: c}

	providerCfg := c.Provider.Value
	if providerCfg == nil {
		providerCfg = config.MustLoadProvider()
	}
	providers, err := providerCfg.BuildProviders()
	if err != nil {
		return nil, fmt.Errorf("svc: build providers: %w", err)
	}
	svc.Providers = providers
	svc.DefaultProvider = providers[providerCfg.Default]
	if svc.DefaultProvider == nil {
		return nil, fmt.Errorf("svc: default provider %q not found", providerCfg.Default)
	}

	if strings.TrimSpace(c.Ingest.StoreURL) != "" {
		store, err := rawstore.NewClient(c.Ingest.StoreURL, c.Ingest.StoreKey)
		if err != nil {
			return nil, fmt.Errorf("svc: raw store: %w", err)
		}
		svc.RawStore = store
		svc.Job = ingest.NewJob(svc.DefaultProvider, store, ingest.ParseSymbols(c.Ingest.Symbols))
	}

	if c.Postgres.DSN != "" {
		svc.DBConn = sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if strings.TrimSpace(c.Redis.Host) != "" {
			node := redis.MustNewRedis(c.Redis)
			svc.Cache = cache.NewNode(node, syncx.NewSingleFlight(), cache.NewStat("finpipe"), sql.ErrNoRows)
		}
		svc.Enriched = enriched.NewReader(svc.DBConn, svc.Cache, cacheutil.NewTTLSet(c.TTL))
	}

	svc.Notifier = notify.New(svc.DBConn, c.Notify.WebhookURL, c.Notify.DagID, c.Notify.TaskID)
	if strings.TrimSpace(c.Ingest.JournalDir) != "" {
		svc.Journal = journal.NewWriter(c.Ingest.JournalDir)
	}

	return svc, nil
}
