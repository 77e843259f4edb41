package config

import "time"

// Config holds runtime settings for the refgate CLI.
//
// Fields:
//   - ServerURL: base URL of the gateway HTTP API.
//   - RequestTimeout: deadline for a single JSON call to the gateway.
//   - UploadTimeout: deadline for the PUT to a signed URL and for multipart uploads.
//   - Provider: storage provider the gateway is expected to sign for ("s3" or "azure").
//   - Theme: output palette, "auto", "dark" or "light".
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	Provider       string
	Theme          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.UploadTimeout = 5 * time.Minute
	c.Provider = "s3"
	c.Theme = "auto"
}

// Load builds a Config from defaults overlaid with the YAML file at path.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path == "" {
		return cfg, nil
	}
	if err := parseYAML(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
