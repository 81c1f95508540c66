package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	auditpg "3tcapital/ms_comprobantes_sri/internal/adapters/audit/postgres"
	categoriafile "3tcapital/ms_comprobantes_sri/internal/adapters/categoria/file"
	categoriapg "3tcapital/ms_comprobantes_sri/internal/adapters/categoria/postgres"
	"3tcapital/ms_comprobantes_sri/internal/adapters/sri"
	appcategoria "3tcapital/ms_comprobantes_sri/internal/application/categoria"
	appcomprobante "3tcapital/ms_comprobantes_sri/internal/application/comprobante"
	apphealth "3tcapital/ms_comprobantes_sri/internal/application/health"
	"3tcapital/ms_comprobantes_sri/internal/core/audit"
	"3tcapital/ms_comprobantes_sri/internal/core/categoria"
	corehealth "3tcapital/ms_comprobantes_sri/internal/core/health"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/cache"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/config"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/database"
	httpinfra "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
)

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg       config.AppConfig
	log       *slog.Logger
	pool      *pgxpool.Pool    // nil without a database
	auditRepo audit.Repository // nil without a database
	memoria   *appcategoria.Memoria
	sri       *sri.Client
	service   *appcomprobante.Service
}

// newApp wires storage, the SRI client and the extraction service. A
// configured but unreachable database is logged and the app falls back to
// the file-backed memory without audit persistence.
func newApp(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if cfg.Database.Enabled() {
		pool, err := database.NewPool(ctx, database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Database,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			log.Warn("database_unavailable",
				"error", err,
				"fallback", "file memory, audit trail disabled",
				"host", cfg.Database.Host,
				"database", cfg.Database.Database,
				"password_set", cfg.Database.Password != "",
			)
		} else if err := database.RunMigrations(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		} else {
			a.pool = pool
			log.Info("database_connected", "database", cfg.Database.Database)
		}
	}

	var repo categoria.Repository
	if a.pool != nil {
		repo = categoriapg.NewRepository(a.pool, log)
		a.auditRepo = auditpg.NewRepository(a.pool, log)
	} else {
		repo = categoriafile.NewRepository(cfg.Memoria.Path)
	}

	a.memoria = appcategoria.NewMemoria(repo)
	if err := a.memoria.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	log.Info("memoria_loaded", "empresas", a.memoria.Len(), "database", a.pool != nil)

	auditEnabled := cfg.Audit.Enabled && a.auditRepo != nil
	if cfg.Audit.Enabled && !auditEnabled {
		log.Warn("audit_disabled", "reason", "audit repository not available (database not connected)")
	}
	traced := httpinfra.NewTracedClient(&httpinfra.TracedClientConfig{
		Timeout:         cfg.SRI.Timeout,
		AuditEnabled:    auditEnabled,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		MaxConnsPerHost: cfg.SRI.MaxConcurrent,
	}, log, a.auditRepo, "sri")

	a.sri = sri.NewClient(sri.Config{
		URLProduccion:   cfg.SRI.URLProduccion,
		URLPruebas:      cfg.SRI.URLPruebas,
		MaxConcurrent:   cfg.SRI.MaxConcurrent,
		RateLimitRPS:    cfg.SRI.RateLimitRPS,
		BreakerFailures: cfg.SRI.BreakerFailures,
		BreakerCooldown: cfg.SRI.BreakerCooldown,
	}, traced, cache.NewDocumentCache(cfg.SRI.CacheTTL, cfg.SRI.CacheMaxEntries), log)

	a.service = appcomprobante.NewService(a.memoria, a.sri, cfg.Processing.WorkerPoolSize, cfg.Processing.FetchConcurrency, log)
	return a, nil
}

// healthService reports the SRI breaker, the database and the memory size.
func (a *app) healthService() *apphealth.Service {
	svc := apphealth.NewService(apphealth.Metadata{
		Service:     a.cfg.App.Name,
		Version:     a.cfg.App.Version,
		Environment: a.cfg.App.Environment,
	})

	svc.Register("sri", func(ctx context.Context) corehealth.Component {
		state := a.sri.BreakerState()
		switch state {
		case sri.BreakerClosed:
			return corehealth.Component{Status: corehealth.StatusUp, Detail: state.String()}
		case sri.BreakerHalfOpen:
			return corehealth.Component{Status: corehealth.StatusDegraded, Detail: state.String()}
		default:
			return corehealth.Component{Status: corehealth.StatusDown, Detail: state.String()}
		}
	})

	svc.Register("memoria", func(ctx context.Context) corehealth.Component {
		return corehealth.Component{Status: corehealth.StatusUp, Detail: fmt.Sprintf("%d empresas", a.memoria.Len())}
	})

	if a.pool != nil {
		svc.Register("database", func(ctx context.Context) corehealth.Component {
			if err := a.pool.Ping(ctx); err != nil {
				return corehealth.Component{Status: corehealth.StatusDown, Detail: err.Error()}
			}
			return corehealth.Component{Status: corehealth.StatusUp}
		})
	}
	return svc
}

// Close releases the database pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}
