package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	Audit      AuditSettings
	SRI        SRISettings
	Processing ProcessingSettings
	Memoria    MemoriaSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	WriteTimeoutBatch time.Duration // Extended timeout for batch extraction and SRI downloads
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

// DatabaseSettings is optional: an empty DB_HOST runs the service without
// PostgreSQL (file-backed memory, no audit persistence).
type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Enabled reports whether a database was configured.
func (d DatabaseSettings) Enabled() bool {
	return d.Host != ""
}

type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// SRISettings configures the authorization web-service client.
type SRISettings struct {
	URLProduccion   string
	URLPruebas      string
	Timeout         time.Duration
	MaxConcurrent   int
	RateLimitRPS    int
	BreakerFailures int
	BreakerCooldown time.Duration
	CacheTTL        time.Duration
	CacheMaxEntries int
}

// ProcessingSettings contains configuration for concurrent voucher extraction.
type ProcessingSettings struct {
	WorkerPoolSize   int   // Number of workers extracting documents
	FetchConcurrency int   // Parallel SRI downloads per batch
	MaxUploadBytes   int64 // Maximum multipart request size
	MaxFiles         int   // Maximum documents per request
}

// MemoriaSettings locates the learned emitter memory when no database is
// configured.
type MemoriaSettings struct {
	Path string
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_comprobantes_sri"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:              getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			WriteTimeoutBatch: getEnvAsDuration("HTTP_WRITE_TIMEOUT_BATCH", 10*time.Minute),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            strings.TrimSpace(os.Getenv("DB_HOST")),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_comprobantes_sri"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", false),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", false),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
		SRI: SRISettings{
			URLProduccion:   strings.TrimSpace(os.Getenv("SRI_URL_PRODUCCION")),
			URLPruebas:      strings.TrimSpace(os.Getenv("SRI_URL_PRUEBAS")),
			Timeout:         getEnvAsDuration("SRI_TIMEOUT", 30*time.Second),
			MaxConcurrent:   getEnvAsInt("SRI_MAX_CONCURRENT", 5),
			RateLimitRPS:    getEnvAsInt("SRI_RATE_LIMIT_RPS", 10),
			BreakerFailures: getEnvAsInt("SRI_BREAKER_FAILURES", 5),
			BreakerCooldown: getEnvAsDuration("SRI_BREAKER_COOLDOWN", 30*time.Second),
			CacheTTL:        getEnvAsDuration("SRI_CACHE_TTL", 24*time.Hour),
			CacheMaxEntries: getEnvAsInt("SRI_CACHE_MAX_ENTRIES", 5000),
		},
		Processing: ProcessingSettings{
			WorkerPoolSize:   getEnvAsInt("DOCUMENT_WORKER_POOL_SIZE", 10),
			FetchConcurrency: getEnvAsInt("DOCUMENT_FETCH_CONCURRENCY", 5),
			MaxUploadBytes:   int64(getEnvAsInt("DOCUMENT_MAX_UPLOAD_MB", 64)) << 20,
			MaxFiles:         getEnvAsInt("DOCUMENT_MAX_FILES", 2000),
		},
		Memoria: MemoriaSettings{
			Path: getEnv("MEMORIA_PATH", "conocimiento_contable.json"),
		},
	}

	if cfg.Processing.WorkerPoolSize <= 0 {
		return cfg, errors.New("invalid config: DOCUMENT_WORKER_POOL_SIZE must be greater than 0")
	}
	if cfg.Processing.MaxFiles <= 0 {
		return cfg, errors.New("invalid config: DOCUMENT_MAX_FILES must be greater than 0")
	}
	if cfg.SRI.MaxConcurrent <= 0 || cfg.SRI.MaxConcurrent > 50 {
		return cfg, errors.New("invalid config: SRI_MAX_CONCURRENT must be between 1 and 50")
	}
	if cfg.SRI.RateLimitRPS < 0 {
		return cfg, errors.New("invalid config: SRI_RATE_LIMIT_RPS cannot be negative")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
