package sri

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/cache"
)

// Offline authorization endpoints published by the SRI.
const (
	DefaultURLProduccion = "https://cel.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
	DefaultURLPruebas    = "https://celcer.sri.gob.ec/comprobantes-electronicos-ws/AutorizacionComprobantesOffline"
)

const (
	ambientePruebas  = "1"
	maxResponseBytes = 10 << 20
)

const autorizacionEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:ec="http://ec.gob.sri.ws.autorizacion">
<soapenv:Header/>
<soapenv:Body>
<ec:autorizacionComprobante>
<claveAccesoComprobante>%s</claveAccesoComprobante>
</ec:autorizacionComprobante>
</soapenv:Body>
</soapenv:Envelope>`

// HTTPClient interface allows using both standard and traced HTTP clients.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the web service answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("el SRI respondió con estado %d", e.StatusCode)
}

// Config holds the SRI client settings.
type Config struct {
	URLProduccion   string
	URLPruebas      string
	MaxConcurrent   int
	RateLimitRPS    int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Client downloads authorized vouchers from the SRI offline authorization
// web service. It implements comprobante.Fetcher.
type Client struct {
	cfg     Config
	http    HTTPClient
	cache   *cache.DocumentCache // Optional: nil disables caching
	limiter *Limiter
	breaker *CircuitBreaker
	log     *slog.Logger
}

// NewClient creates an SRI client. Empty URLs fall back to the public
// endpoints.
func NewClient(cfg Config, httpClient HTTPClient, docCache *cache.DocumentCache, log *slog.Logger) *Client {
	if cfg.URLProduccion == "" {
		cfg.URLProduccion = DefaultURLProduccion
	}
	if cfg.URLPruebas == "" {
		cfg.URLPruebas = DefaultURLPruebas
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		cache:   docCache,
		limiter: NewLimiter(cfg.MaxConcurrent, cfg.RateLimitRPS),
		breaker: NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerCooldown, isOutage),
		log:     log,
	}
}

// Fetch returns the raw authorization response for claveAcceso. The
// response is only returned, and cached, when the SRI reports the voucher
// as AUTORIZADO.
func (c *Client) Fetch(ctx context.Context, claveAcceso string) ([]byte, error) {
	clave, err := comprobante.ParseClaveAcceso(claveAcceso)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(clave.Clave); ok {
			c.log.Debug("sri_cache_hit", "clave", clave.Clave)
			return body, nil
		}
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("esperando turno para consultar el SRI: %w", err)
	}
	defer c.limiter.Release()

	var body []byte
	err = c.breaker.Execute(ctx, func() error {
		var callErr error
		body, callErr = c.call(ctx, c.endpoint(clave), clave.Clave)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	resp, err := ParseRespuesta(body)
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		c.log.Info("sri_no_autorizado", "clave", clave.Clave, "estado", resp.Estado(), "comprobantes", resp.NumeroComprobantes)
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(clave.Clave, body)
	}
	return body, nil
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *Client) BreakerState() BreakerState {
	return c.breaker.State()
}

func (c *Client) endpoint(clave comprobante.ClaveAcceso) string {
	if clave.Ambiente == ambientePruebas {
		return c.cfg.URLPruebas
	}
	return c.cfg.URLProduccion
}

func (c *Client) call(ctx context.Context, url, clave string) ([]byte, error) {
	payload := fmt.Sprintf(autorizacionEnvelope, clave)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml;charset=UTF-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// isOutage reports whether err means the SRI itself is failing. Client-side
// cancellations and 4xx answers do not trip the breaker.
func isOutage(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
