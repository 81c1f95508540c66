package comprobante

import (
	"sort"
	"sync"
	"time"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// ResultAggregator aggregates results from concurrent extractions and hands
// them back in input order.
type ResultAggregator struct {
	mu                 sync.Mutex
	results            []DocumentResult
	startTime          time.Time
	totalDocuments     int
	processedCount     int
	failedCount        int
	fechaProcesamiento string
	horaProcesamiento  string
}

// NewResultAggregator creates a new result aggregator
func NewResultAggregator(totalDocuments int) *ResultAggregator {
	now := time.Now()
	return &ResultAggregator{
		results:            make([]DocumentResult, 0, totalDocuments),
		startTime:          now,
		totalDocuments:     totalDocuments,
		fechaProcesamiento: now.Format("2006-01-02"),
		horaProcesamiento:  now.Format("15:04:05"),
	}
}

// Add records the outcome of one document.
func (a *ResultAggregator) Add(result DocumentResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	if result.Failed {
		a.failedCount++
	} else {
		a.processedCount++
	}
}

// GetResults returns the extracted records and the failed documents, both
// sorted by input index.
func (a *ResultAggregator) GetResults() ([]comprobante.Record, []comprobante.FailedDocument) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ordered := append([]DocumentResult(nil), a.results...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	records := make([]comprobante.Record, 0, a.processedCount)
	failed := make([]comprobante.FailedDocument, 0, a.failedCount)
	for _, r := range ordered {
		if !r.Failed {
			records = append(records, r.Record)
			continue
		}
		failed = append(failed, comprobante.FailedDocument{
			Archivo:            r.Nombre,
			Errors:             []string{r.ErrorMessage},
			FechaProcesamiento: a.fechaProcesamiento,
			HoraProcesamiento:  a.horaProcesamiento,
		})
	}
	return records, failed
}

// GetStats returns processing statistics
func (a *ResultAggregator) GetStats() ProcessingStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	duration := time.Since(a.startTime)
	var throughput, successRate float64
	if duration.Seconds() > 0 {
		throughput = float64(a.processedCount) / duration.Seconds()
	}
	if a.totalDocuments > 0 {
		successRate = float64(a.processedCount) / float64(a.totalDocuments) * 100
	}

	return ProcessingStats{
		TotalDocuments: a.totalDocuments,
		ProcessedCount: a.processedCount,
		FailedCount:    a.failedCount,
		Duration:       duration,
		DurationMs:     duration.Milliseconds(),
		Throughput:     throughput,
		SuccessRate:    successRate,
	}
}

// ProcessingStats contains processing statistics
type ProcessingStats struct {
	TotalDocuments int           `json:"total"`
	ProcessedCount int           `json:"procesados"`
	FailedCount    int           `json:"fallidos"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"duracion_ms"`
	Throughput     float64       `json:"throughput"` // Documents per second
	SuccessRate    float64       `json:"tasa_exito"` // Percentage
}
