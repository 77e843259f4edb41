package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/refgate/internal/flagx"
	"github.com/dmitrijs2005/refgate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so files may say "30s" or give integer nanoseconds.
// Pointer fields distinguish "absent" from "false"/"0".
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	DatabaseDSN      string `json:"database_dsn"`

	StorageProvider string `json:"storage_provider"`
	Bucket          string `json:"storage_bucket"`
	S3AccessKey     string `json:"s3_access_key"`
	S3SecretKey     string `json:"s3_secret_key"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3UsePathStyle  *bool  `json:"s3_use_path_style"`
	AzureAccount    string `json:"azure_account"`
	AzureAccountKey string `json:"azure_account_key"`
	AzureServiceURL string `json:"azure_service_url"`

	BackendURL string `json:"backend_url"`

	SignedURLTTL    timex.Duration `json:"signed_url_ttl"`
	ClientExpiry    timex.Duration `json:"client_expiry"`
	DownloadTimeout timex.Duration `json:"download_timeout"`
	DispatchTimeout timex.Duration `json:"dispatch_timeout"`
	CleanupTimeout  timex.Duration `json:"cleanup_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	MaxObjectSize   int64          `json:"max_object_size"`

	AllowedOrigins []string `json:"allowed_origins"`
	RateLimitRPS   float64  `json:"rate_limit_rps"`
	RateLimitBurst int      `json:"rate_limit_burst"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`
}

// parseJson overlays Config with the JSON file named by -c/-config or
// $REFGATE_CONFIG. Fields missing from the file keep their current values.
// Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlayString(&cfg.EndpointAddrHTTP, jc.EndpointAddrHTTP)
	overlayString(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	overlayString(&cfg.DatabaseDSN, jc.DatabaseDSN)

	overlayString(&cfg.StorageProvider, jc.StorageProvider)
	overlayString(&cfg.Bucket, jc.Bucket)
	overlayString(&cfg.S3AccessKey, jc.S3AccessKey)
	overlayString(&cfg.S3SecretKey, jc.S3SecretKey)
	overlayString(&cfg.S3Region, jc.S3Region)
	overlayString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	if jc.S3UsePathStyle != nil {
		cfg.S3UsePathStyle = *jc.S3UsePathStyle
	}
	overlayString(&cfg.AzureAccount, jc.AzureAccount)
	overlayString(&cfg.AzureAccountKey, jc.AzureAccountKey)
	overlayString(&cfg.AzureServiceURL, jc.AzureServiceURL)

	overlayString(&cfg.BackendURL, jc.BackendURL)

	overlayDuration(&cfg.SignedURLTTL, jc.SignedURLTTL)
	overlayDuration(&cfg.ClientExpiry, jc.ClientExpiry)
	overlayDuration(&cfg.DownloadTimeout, jc.DownloadTimeout)
	overlayDuration(&cfg.DispatchTimeout, jc.DispatchTimeout)
	overlayDuration(&cfg.CleanupTimeout, jc.CleanupTimeout)
	overlayDuration(&cfg.ShutdownTimeout, jc.ShutdownTimeout)
	if jc.MaxObjectSize > 0 {
		cfg.MaxObjectSize = jc.MaxObjectSize
	}

	if len(jc.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = jc.AllowedOrigins
	}
	if jc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = jc.RateLimitRPS
	}
	if jc.RateLimitBurst > 0 {
		cfg.RateLimitBurst = jc.RateLimitBurst
	}

	overlayString(&cfg.LogFormat, jc.LogFormat)
	overlayString(&cfg.LogLevel, jc.LogLevel)
}

func overlayString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overlayDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
