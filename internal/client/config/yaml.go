package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/refgate/internal/timex"
	"gopkg.in/yaml.v3"
)

// yamlConfig is the on-disk shape. Zero values leave the defaults in place.
type yamlConfig struct {
	ServerURL      string         `yaml:"server_url"`
	RequestTimeout timex.Duration `yaml:"request_timeout"`
	UploadTimeout  timex.Duration `yaml:"upload_timeout"`
	Provider       string         `yaml:"provider"`
	Theme          string         `yaml:"theme"`
}

var readFile = os.ReadFile

func parseYAML(cfg *Config, path string) error {
	data, err := readFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if yc.ServerURL != "" {
		cfg.ServerURL = yc.ServerURL
	}
	if yc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = yc.RequestTimeout.Duration
	}
	if yc.UploadTimeout.Duration > 0 {
		cfg.UploadTimeout = yc.UploadTimeout.Duration
	}
	if yc.Provider != "" {
		cfg.Provider = yc.Provider
	}
	if yc.Theme != "" {
		cfg.Theme = yc.Theme
	}
	return nil
}
