package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"3tcapital/ms_comprobantes_sri/internal/infrastructure/config"
	httperrors "3tcapital/ms_comprobantes_sri/internal/infrastructure/http"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/http/middleware"
)

// ComprobanteRoutes serves voucher extraction.
type ComprobanteRoutes interface {
	Extract(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
	FromSRI(w http.ResponseWriter, r *http.Request)
}

// CategoriaRoutes serves the learned category memory.
type CategoriaRoutes interface {
	List(w http.ResponseWriter, r *http.Request)
	Learn(w http.ResponseWriter, r *http.Request)
}

// AuditRoutes serves the SRI call audit trail.
type AuditRoutes interface {
	ByLote(w http.ResponseWriter, r *http.Request)
	ByCorrelationID(w http.ResponseWriter, r *http.Request)
}

// Server wires the HTTP router, middlewares and lifecycle.
type Server struct {
	cfg        config.AppConfig
	log        *slog.Logger
	httpServer *http.Server
	auth       *middleware.JWTAuthenticator
}

// Options groups the handlers mounted by New. Only HealthHandler is
// required; nil route groups are not mounted. A nil Auditoria answers 503
// because the audit trail needs a database.
type Options struct {
	Config        config.AppConfig
	Logger        *slog.Logger
	HealthHandler http.Handler
	Comprobantes  ComprobanteRoutes
	Categorias    CategoriaRoutes
	Auditoria     AuditRoutes
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.HealthHandler == nil {
		return nil, errors.New("health handler is required")
	}

	auth, err := middleware.NewJWTAuthenticator(opts.Config.Auth, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create authenticator: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/health", opts.HealthHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(auth.Middleware)

		if c := opts.Comprobantes; c != nil {
			api.Route("/comprobantes", func(cr chi.Router) {
				cr.Use(middleware.BatchTimeout(opts.Config.HTTP.WriteTimeoutBatch))
				cr.Post("/extraer", c.Extract)
				cr.Post("/reporte", c.Report)
				cr.Post("/sri", c.FromSRI)
			})
		}

		if c := opts.Categorias; c != nil {
			api.Get("/categorias", c.List)
			api.Post("/categorias/aprender", c.Learn)
		}

		api.Route("/auditoria", func(ar chi.Router) {
			if a := opts.Auditoria; a != nil {
				ar.Get("/lotes/{lote}", a.ByLote)
				ar.Get("/solicitudes/{correlationID}", a.ByCorrelationID)
				return
			}
			ar.HandleFunc("/*", func(w http.ResponseWriter, r *http.Request) {
				httperrors.WriteError(w, http.StatusServiceUnavailable, "Servicio no disponible",
					[]string{"La auditoría requiere una base de datos configurada"}, opts.Logger)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, http.StatusNotFound, "Recurso no encontrado", []string{r.URL.Path}, opts.Logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", []string{r.Method + " " + r.URL.Path}, opts.Logger)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Config.HTTP.Port),
		Handler:      r,
		ReadTimeout:  opts.Config.HTTP.ReadTimeout,
		WriteTimeout: opts.Config.HTTP.WriteTimeout,
		IdleTimeout:  opts.Config.HTTP.IdleTimeout,
	}

	return &Server{cfg: opts.Config, log: opts.Logger, httpServer: srv, auth: auth}, nil
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http_server_started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info("http_server_stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases the JWKS refresher.
func (s *Server) Close() {
	if s.auth != nil {
		s.auth.Close()
	}
}
