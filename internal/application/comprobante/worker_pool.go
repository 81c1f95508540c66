package comprobante

import (
	"context"
	"fmt"
	"sync"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// DocumentJob represents a job to be processed by a worker
type DocumentJob struct {
	Upload comprobante.Upload
	Index  int
}

// DocumentResult represents the result of processing a document
type DocumentResult struct {
	Nombre       string
	Record       comprobante.Record
	Failed       bool
	Error        error
	ErrorMessage string
	Index        int
}

// DocumentWorkerPool manages concurrent extraction of vouchers. Every worker
// shares the same read-only category lookup.
type DocumentWorkerPool struct {
	workerCount int
	jobChan     chan DocumentJob
	resultChan  chan DocumentResult
	lookup      comprobante.CategoryLookup
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewDocumentWorkerPool creates a new worker pool for document processing
func NewDocumentWorkerPool(ctx context.Context, workerCount int, lookup comprobante.CategoryLookup) *DocumentWorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)

	return &DocumentWorkerPool{
		workerCount: workerCount,
		jobChan:     make(chan DocumentJob, workerCount*2),
		resultChan:  make(chan DocumentResult, workerCount*2),
		lookup:      lookup,
		ctx:         poolCtx,
		cancel:      cancel,
	}
}

// Start starts the worker pool with the specified number of workers
func (p *DocumentWorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop cancels the pool and waits for the workers to exit. The job channel
// is owned by the producer and must already be closed or abandoned.
func (p *DocumentWorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	close(p.resultChan)
}

// Submit submits a job to the worker pool
func (p *DocumentWorkerPool) Submit(job DocumentJob) error {
	select {
	case p.jobChan <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Results returns the channel for receiving results
func (p *DocumentWorkerPool) Results() <-chan DocumentResult {
	return p.resultChan
}

func (p *DocumentWorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				return
			}
			result := p.processDocument(job)
			select {
			case p.resultChan <- result:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// processDocument normalizes and extracts a single voucher. Failures, panics
// included, are reported on the result and never stop the worker.
func (p *DocumentWorkerPool) processDocument(job DocumentJob) (result DocumentResult) {
	result = DocumentResult{
		Nombre: job.Upload.Nombre,
		Index:  job.Index,
	}
	defer func() {
		if r := recover(); r != nil {
			result.Failed = true
			result.Error = fmt.Errorf("panic: %v", r)
			result.ErrorMessage = "Error inesperado al procesar el comprobante"
		}
	}()

	record, err := extractUpload(job.Upload.Contenido, p.lookup)
	if err != nil {
		result.Failed = true
		result.Error = err
		result.ErrorMessage = "Error al extraer el comprobante: " + err.Error()
		return result
	}
	result.Record = record
	return result
}

// ProcessDocuments runs jobs through the pool and feeds every outcome to
// agg. Jobs left unprocessed when ctx ends are recorded as failed.
func (p *DocumentWorkerPool) ProcessDocuments(ctx context.Context, jobs []DocumentJob, agg *ResultAggregator) {
	p.Start()
	defer p.Stop()

	go func() {
		defer close(p.jobChan)
		for _, job := range jobs {
			if err := p.Submit(job); err != nil {
				return
			}
		}
	}()

	pending := make(map[int]DocumentJob, len(jobs))
	for _, job := range jobs {
		pending[job.Index] = job
	}

	for len(pending) > 0 {
		select {
		case result := <-p.Results():
			delete(pending, result.Index)
			agg.Add(result)
		case <-ctx.Done():
			for _, job := range pending {
				agg.Add(DocumentResult{
					Nombre:       job.Upload.Nombre,
					Index:        job.Index,
					Failed:       true,
					Error:        ctx.Err(),
					ErrorMessage: "Procesamiento cancelado: " + ctx.Err().Error(),
				})
			}
			return
		}
	}
}

func extractUpload(raw []byte, lookup comprobante.CategoryLookup) (comprobante.Record, error) {
	root, tipo, err := Normalize(raw)
	if err != nil {
		return comprobante.Record{}, err
	}
	return Extract(root, tipo, lookup)
}
