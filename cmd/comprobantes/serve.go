package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	auditoriahttp "3tcapital/ms_comprobantes_sri/internal/adapters/http/auditoria"
	categoriahttp "3tcapital/ms_comprobantes_sri/internal/adapters/http/categoria"
	comprobantehttp "3tcapital/ms_comprobantes_sri/internal/adapters/http/comprobante"
	healthhttp "3tcapital/ms_comprobantes_sri/internal/adapters/http/health"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/config"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/http/server"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia la API HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	var auditoria server.AuditRoutes
	if a.auditRepo != nil {
		auditoria = auditoriahttp.NewHandler(a.auditRepo, log)
	}

	srv, err := server.New(server.Options{
		Config:        cfg,
		Logger:        log,
		HealthHandler: http.HandlerFunc(healthhttp.NewHandler(a.healthService(), log).Status),
		Comprobantes: comprobantehttp.NewHandler(a.service, comprobantehttp.Limits{
			MaxUploadBytes: cfg.Processing.MaxUploadBytes,
			MaxFiles:       cfg.Processing.MaxFiles,
		}, log),
		Categorias: categoriahttp.NewHandler(a.memoria, cfg.Processing.MaxUploadBytes, log),
		Auditoria:  auditoria,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("starting_http_server",
		"port", cfg.HTTP.Port,
		"auth_enabled", cfg.Auth.Enabled,
		"database", a.pool != nil,
		"workers", cfg.Processing.WorkerPoolSize,
	)
	return srv.Run(ctx)
}
