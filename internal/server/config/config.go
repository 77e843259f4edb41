// Package config handles configuration for the server component: defaults,
// environment (with .env support), JSON overlay and command-line flags.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/refgate/internal/common"
)

// Config holds runtime settings for the refgate server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses of the HTTP API and
//     the gRPC health endpoint (empty disables gRPC).
//   - DatabaseDSN: PostgreSQL DSN (pgx) for the analysis ledger; empty keeps
//     the ledger in memory.
//   - StorageProvider: "s3" or "azure".
//   - Bucket: the single bucket (container) uploads must land in.
//   - S3AccessKey / S3SecretKey / S3Region / S3BaseEndpoint / S3UsePathStyle:
//     S3-compatible store settings.
//   - AzureAccount / AzureAccountKey / AzureServiceURL: Azure Blob settings.
//   - BackendURL: base URL of the analysis backend.
//   - SignedURLTTL: lifetime of the store-level upload signature.
//   - ClientExpiry: expiry reported to clients with each credential.
//   - DownloadTimeout / DispatchTimeout / CleanupTimeout: per-call limits.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - MaxObjectSize: largest object the server downloads or accepts, bytes.
//   - AllowedOrigins: CORS allow-list; "*.example.com" matches subdomains.
//   - RateLimitRPS / RateLimitBurst: per-IP limits on upload endpoints.
//   - LogFormat / LogLevel: see logging.New.
type Config struct {
	EndpointAddrHTTP string
	EndpointAddrGRPC string
	DatabaseDSN      string

	StorageProvider string
	Bucket          string
	S3AccessKey     string
	S3SecretKey     string
	S3Region        string
	S3BaseEndpoint  string
	S3UsePathStyle  bool
	AzureAccount    string
	AzureAccountKey string
	AzureServiceURL string

	BackendURL string

	SignedURLTTL    time.Duration
	ClientExpiry    time.Duration
	DownloadTimeout time.Duration
	DispatchTimeout time.Duration
	CleanupTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxObjectSize   int64

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates Config with development defaults matching a local
// MinIO and analysis backend.
// NOTE: the storage credentials are insecure and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""

	c.StorageProvider = common.ProviderS3
	c.Bucket = "documents"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3UsePathStyle = true

	c.BackendURL = "http://127.0.0.1:8000"

	c.SignedURLTTL = 15 * time.Minute
	c.ClientExpiry = common.DefaultClientExpiry
	c.DownloadTimeout = 30 * time.Second
	c.DispatchTimeout = 30 * time.Second
	c.CleanupTimeout = 10 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.MaxObjectSize = common.MaxFileSize

	c.AllowedOrigins = []string{"http://localhost:3000"}
	c.RateLimitRPS = 5
	c.RateLimitBurst = 10

	c.LogFormat = "json"
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (.env included), an optional JSON file and finally
// command-line flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// CheckRuntime validates the settings every saga depends on. It is called
// per request so that a bad value fails that request instead of the process.
func (c *Config) CheckRuntime() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("%w: storage bucket is not set", common.ErrMisconfigured)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: backend url %q is not an absolute http(s) url", common.ErrMisconfigured, c.BackendURL)
	}
	return nil
}
