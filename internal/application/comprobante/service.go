package comprobante

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
)

// ErrFetcherNotConfigured is returned by ProcessClaves when the service has
// no SRI client.
var ErrFetcherNotConfigured = errors.New("cliente del SRI no configurado")

const (
	defaultWorkerPoolSize   = 10
	defaultFetchConcurrency = 5
)

// LookupSource provides the category lookup used for one batch. The lookup
// it returns must not change while the batch runs.
type LookupSource interface {
	Snapshot() comprobante.CategoryLookup
}

// BatchResult is the outcome of processing a set of vouchers.
type BatchResult struct {
	Lote       string                       `json:"lote"`
	Procesados []comprobante.Record         `json:"procesados"`
	Fallidos   []comprobante.FailedDocument `json:"fallidos"`
	Stats      ProcessingStats              `json:"estadisticas"`
}

// Service orchestrates voucher extraction use cases.
type Service struct {
	lookups          LookupSource
	fetcher          comprobante.Fetcher // Optional: nil when SRI downloads are disabled
	workerPoolSize   int
	fetchConcurrency int
	logger           *slog.Logger
}

// NewService creates a comprobante service. fetcher may be nil, in which
// case ProcessClaves is unavailable. Non-positive sizes fall back to defaults.
func NewService(lookups LookupSource, fetcher comprobante.Fetcher, workerPoolSize, fetchConcurrency int, logger *slog.Logger) *Service {
	if workerPoolSize <= 0 {
		workerPoolSize = defaultWorkerPoolSize
	}
	if fetchConcurrency <= 0 {
		fetchConcurrency = defaultFetchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		lookups:          lookups,
		fetcher:          fetcher,
		workerPoolSize:   workerPoolSize,
		fetchConcurrency: fetchConcurrency,
		logger:           logger,
	}
}

// ExtractDocument normalizes and extracts a single voucher.
func (s *Service) ExtractDocument(raw []byte) (comprobante.Record, error) {
	return extractUpload(raw, s.snapshot())
}

// ProcessBatch extracts every upload concurrently. A failing document is
// reported in Fallidos and never aborts the rest of the batch.
func (s *Service) ProcessBatch(ctx context.Context, uploads []comprobante.Upload) BatchResult {
	lote := uuid.NewString()
	ctx = ctxutil.WithLote(ctx, lote)

	jobs := make([]DocumentJob, len(uploads))
	for i, u := range uploads {
		jobs[i] = DocumentJob{Upload: u, Index: i}
	}

	agg := NewResultAggregator(len(uploads))
	s.run(ctx, jobs, agg)
	return s.result(ctx, lote, agg)
}

// ProcessClaves downloads the vouchers identified by claves from the SRI and
// extracts them. Invalid keys and download failures are reported as failed
// documents.
func (s *Service) ProcessClaves(ctx context.Context, claves []string) (BatchResult, error) {
	if s.fetcher == nil {
		return BatchResult{}, ErrFetcherNotConfigured
	}
	lote := uuid.NewString()
	ctx = ctxutil.WithLote(ctx, lote)

	agg := NewResultAggregator(len(claves))
	fetched := make([]*DocumentJob, len(claves))

	var g errgroup.Group
	g.SetLimit(s.fetchConcurrency)
	for i, raw := range claves {
		clave, err := comprobante.ParseClaveAcceso(raw)
		if err != nil {
			agg.Add(DocumentResult{
				Nombre:       raw,
				Index:        i,
				Failed:       true,
				Error:        err,
				ErrorMessage: "Clave de acceso inválida: " + err.Error(),
			})
			continue
		}

		i := i
		g.Go(func() error {
			body, err := s.fetcher.Fetch(ctx, clave.Clave)
			if err != nil {
				s.logger.Warn("sri_fetch_failed", "lote", lote, "clave", clave.Clave, "error", err)
				agg.Add(DocumentResult{
					Nombre:       clave.Clave,
					Index:        i,
					Failed:       true,
					Error:        err,
					ErrorMessage: "Error al consultar el SRI: " + err.Error(),
				})
				return nil
			}
			fetched[i] = &DocumentJob{
				Upload: comprobante.Upload{Nombre: clave.Clave, Contenido: body},
				Index:  i,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BatchResult{}, fmt.Errorf("error al descargar comprobantes: %w", err)
	}

	jobs := make([]DocumentJob, 0, len(claves))
	for _, job := range fetched {
		if job != nil {
			jobs = append(jobs, *job)
		}
	}
	s.run(ctx, jobs, agg)
	return s.result(ctx, lote, agg), nil
}

func (s *Service) run(ctx context.Context, jobs []DocumentJob, agg *ResultAggregator) {
	if len(jobs) == 0 {
		return
	}
	workers := s.workerPoolSize
	if len(jobs) < workers {
		workers = len(jobs)
	}
	pool := NewDocumentWorkerPool(ctx, workers, s.snapshot())
	pool.ProcessDocuments(ctx, jobs, agg)
}

func (s *Service) result(ctx context.Context, lote string, agg *ResultAggregator) BatchResult {
	procesados, fallidos := agg.GetResults()
	stats := agg.GetStats()

	s.logger.Info("batch_processed", append(ctxutil.LogAttrs(ctx),
		"total", stats.TotalDocuments,
		"procesados", stats.ProcessedCount,
		"fallidos", stats.FailedCount,
		"duration_ms", stats.DurationMs,
	)...)
	for _, f := range fallidos {
		s.logger.Debug("document_failed", "lote", lote, "archivo", f.Archivo, "errors", f.Errors)
	}

	return BatchResult{
		Lote:       lote,
		Procesados: procesados,
		Fallidos:   fallidos,
		Stats:      stats,
	}
}

func (s *Service) snapshot() comprobante.CategoryLookup {
	if s.lookups == nil {
		return nil
	}
	return s.lookups.Snapshot()
}
