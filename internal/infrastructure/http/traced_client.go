package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"3tcapital/ms_comprobantes_sri/internal/core/audit"
	ctxutil "3tcapital/ms_comprobantes_sri/internal/infrastructure/context"
	"3tcapital/ms_comprobantes_sri/internal/infrastructure/security"
)

// soapOperation matches the first element inside a SOAP Body, e.g.
// <ec:autorizacionComprobante>.
var soapOperation = regexp.MustCompile(`<(?:\w+:)?Body[^>]*>\s*<(?:\w+:)?(\w+)`)

// TracedClient wraps an HTTP client to log every provider call and persist
// an audit trail with sanitized headers and bodies.
type TracedClient struct {
	client       *http.Client
	log          *slog.Logger
	auditRepo    audit.Repository // Optional: nil when no database is configured
	provider     string
	auditEnabled bool
	logReqBody   bool
	logRespBody  bool
	maxBodySize  int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	AuditEnabled    bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int // 0 uses 10, the SRI rejects more aggressive clients
}

// NewTracedClient creates a traced HTTP client with a pooled transport.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, auditRepo audit.Repository, provider string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 10
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &TracedClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log:          log,
		auditRepo:    auditRepo,
		provider:     provider,
		auditEnabled: cfg.AuditEnabled,
		logReqBody:   cfg.LogRequestBody,
		logRespBody:  cfg.LogResponseBody,
		maxBodySize:  cfg.MaxBodySize,
	}
}

// Do executes an HTTP request with tracing and, when enabled, audit
// persistence. Request and response bodies remain readable by the caller.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	correlationID := ctxutil.GetCorrelationID(ctx)
	start := time.Now()

	if correlationID != "" {
		req.Header.Set("X-Correlation-ID", correlationID)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			c.log.Error("Failed to read request body for tracing", "error", err, "correlation_id", correlationID)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}
	operation := c.extractOperation(req, requestBody)

	c.logRequest(ctx, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		responseBody, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	}

	c.logResponse(ctx, operation, resp, err, duration, responseBody)

	if !c.auditEnabled || c.auditRepo == nil {
		return resp, err
	}

	if correlationID == "" {
		correlationID = fmt.Sprintf("audit-%d", time.Now().UnixNano())
	}
	entry := c.auditEntry(correlationID, operation, req, resp, err, duration, requestBody, responseBody)
	entry.Lote = ctxutil.GetLote(ctx)

	// The request context ends with the response, so the audit write gets
	// its own deadline.
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("Panic in audit log persistence", "panic", r, "correlation_id", correlationID)
			}
		}()
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := c.auditRepo.Save(saveCtx, entry); err != nil {
			c.log.Error("Failed to persist audit log",
				"error", err,
				"correlation_id", correlationID,
				"provider", c.provider,
				"operation", operation,
			)
		}
	}()

	return resp, err
}

func (c *TracedClient) logRequest(ctx context.Context, operation string, req *http.Request, body []byte) {
	attrs := append(ctxutil.LogAttrs(ctx),
		"provider", c.provider,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	)
	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	c.log.Info("provider_request", attrs...)
}

func (c *TracedClient) logResponse(ctx context.Context, operation string, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := append(ctxutil.LogAttrs(ctx),
		"provider", c.provider,
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	)

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("provider_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("provider_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("provider_response", attrs...)
	default:
		c.log.Info("provider_response", attrs...)
	}
}

func (c *TracedClient) auditEntry(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, requestBody, responseBody []byte) audit.ProviderAuditLog {
	entry := audit.ProviderAuditLog{
		CorrelationID:  correlationID,
		Provider:       c.provider,
		Operation:      operation,
		RequestMethod:  req.Method,
		RequestURL:     security.SanitizeURL(req.URL.String()),
		RequestHeaders: security.SanitizeHeaders(req.Header),
		RequestBody:    security.SanitizeBody(requestBody, c.maxBodySize),
		DurationMs:     duration.Milliseconds(),
	}
	if resp != nil {
		status := resp.StatusCode
		entry.ResponseStatus = &status
		entry.ResponseHeaders = security.SanitizeHeaders(resp.Header)
		entry.ResponseBody = security.SanitizeBody(responseBody, c.maxBodySize)
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	return entry
}

// extractOperation names the call: the SOAP operation when the body is an
// envelope, else the last path segment, else METHOD_provider.
func (c *TracedClient) extractOperation(req *http.Request, body []byte) string {
	if m := soapOperation.FindSubmatch(body); m != nil {
		return string(m[1])
	}

	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return fmt.Sprintf("%s_%s", req.Method, c.provider)
}

// Client returns the underlying HTTP client.
func (c *TracedClient) Client() *http.Client {
	return c.client
}
