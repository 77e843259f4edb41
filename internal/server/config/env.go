package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment key read by parseEnv.
const EnvPrefix = "REFGATE_"

// parseEnv overlays Config with REFGATE_* environment variables. A .env file
// in the working directory is loaded first when present; variables already
// set in the process environment win over it. Unset or empty variables leave
// the current value alone; malformed numbers and durations panic.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&cfg.EndpointAddrGRPC, "GRPC_ADDR")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")

	setString(&cfg.StorageProvider, "STORAGE_PROVIDER")
	setString(&cfg.Bucket, "STORAGE_BUCKET")
	setString(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3SecretKey, "S3_SECRET_KEY")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3BaseEndpoint, "S3_ENDPOINT")
	setBool(&cfg.S3UsePathStyle, "S3_PATH_STYLE")
	setString(&cfg.AzureAccount, "AZURE_ACCOUNT")
	setString(&cfg.AzureAccountKey, "AZURE_ACCOUNT_KEY")
	setString(&cfg.AzureServiceURL, "AZURE_SERVICE_URL")

	setString(&cfg.BackendURL, "BACKEND_URL")

	setDuration(&cfg.SignedURLTTL, "SIGNED_URL_TTL")
	setDuration(&cfg.ClientExpiry, "CLIENT_EXPIRY")
	setDuration(&cfg.DownloadTimeout, "DOWNLOAD_TIMEOUT")
	setDuration(&cfg.DispatchTimeout, "DISPATCH_TIMEOUT")
	setDuration(&cfg.CleanupTimeout, "CLEANUP_TIMEOUT")
	setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	if v := getEnv("MAX_OBJECT_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		cfg.MaxObjectSize = n
	}

	if v := getEnv("ALLOW_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getEnv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		cfg.RateLimitRPS = f
	}
	if v := getEnv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		cfg.RateLimitBurst = n
	}

	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func setString(dst *string, key string) {
	if v := getEnv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	v := getEnv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(err)
	}
	*dst = b
}

func setDuration(dst *time.Duration, key string) {
	v := getEnv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
