// Package app wires the desk services from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"erpdesk/internal/config"
	"erpdesk/internal/domain/audit"
	"erpdesk/internal/domain/forms"
	"erpdesk/internal/domain/itemlabel"
	"erpdesk/internal/domain/reports"
	"erpdesk/internal/infrastructure/frappe"
	v1 "erpdesk/internal/infrastructure/http/v1"
	"erpdesk/internal/infrastructure/http/v1/handlers"
	"erpdesk/internal/infrastructure/http/v1/middleware"
	"erpdesk/internal/infrastructure/storage/postgres"
	"erpdesk/internal/metadata"
	"erpdesk/pkg/logger"
)

// Version is reported by /health/info.
var Version = "dev"

// NewMetadata builds the registry with every report and doctype registered.
// now may be nil.
func NewMetadata(now func() time.Time) (*metadata.Registry, error) {
	defaults, err := metadata.NewDefaults(now)
	if err != nil {
		return nil, fmt.Errorf("default expressions: %w", err)
	}
	reg := metadata.NewRegistry(defaults)
	if err := reports.RegisterAll(reg); err != nil {
		return nil, err
	}
	if err := itemlabel.RegisterSchemas(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// App holds the wired services.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Metadata *metadata.Registry
	Frappe   *frappe.Client
	Reports  *reports.Service
	Forms    *forms.Registry
	Labels   *itemlabel.Service

	// Journal is nil when no database is configured.
	Journal *postgres.PriceJournal

	redis *redis.Client
	pool  *postgres.Pool
}

// New connects to the site and the optional Redis and PostgreSQL stores.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.Config, a.Log

	reg, err := NewMetadata(nil)
	if err != nil {
		return err
	}
	a.Metadata = reg

	client, err := frappe.New(cfg.Frappe(), log)
	if err != nil {
		return err
	}
	a.Frappe = client

	var values reports.ValueGetter = frappe.NewValueReader(client)
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		values = frappe.NewCachedValues(values, a.redis, cfg.ValueCacheTTL, log)
		log.Infow("lookup cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ValueCacheTTL)
	}

	var recorder audit.Recorder = audit.Nop{}
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("price journal database: %w", err)
		}
		a.pool = pool
		journal, err := postgres.NewPriceJournal(postgres.NewTxManager(pool))
		if err != nil {
			return err
		}
		if err := journal.EnsureSchema(ctx); err != nil {
			return err
		}
		a.Journal = journal
		recorder = journal
		log.Info("price journal enabled")
	}

	callbacks := reports.Callbacks{
		reports.OnCustomerChange: reports.CustomerNameLookup(values, log),
	}
	a.Reports, err = reports.NewService(reg, client, callbacks, log)
	if err != nil {
		return err
	}

	prices := frappe.NewPriceStore(client)
	syncer := itemlabel.NewSyncer(prices, recorder, cfg.Sync(), log)
	a.Forms = forms.NewRegistry()
	itemlabel.Register(a.Forms, itemlabel.NewHandlers(prices, syncer, log))
	a.Labels = itemlabel.NewService(client, reg, syncer)
	return nil
}

// RouterConfig returns the HTTP API configuration over the app.
func (a *App) RouterConfig(sessions middleware.SessionValidator) v1.RouterConfig {
	rc := v1.RouterConfig{
		Logger:       a.Log,
		Sessions:     sessions,
		Version:      Version,
		HealthChecks: a.healthChecks(),
		Metadata:     a.Metadata,
		Reports:      a.Reports,
		Forms:        a.Forms,
		Labels:       a.Labels,
		SyncDefaults: a.Config.Sync(),
	}
	if a.Journal != nil {
		rc.AuditReader = a.Journal
	}
	return rc
}

func (a *App) healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"frappe": a.Frappe}
	if a.redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.pool != nil {
		checks["database"] = a.pool
	}
	return checks
}

// LogPoolStats logs database pool statistics every interval until ctx ends.
func (a *App) LogPoolStats(ctx context.Context, interval time.Duration) {
	if a.pool == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pool.LogStats(ctx)
		}
	}
}

// Close releases connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warnw("redis close failed", "error", err)
		}
	}
	a.pool.Close()
}
