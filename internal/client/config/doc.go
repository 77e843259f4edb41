// Package config loads runtime configuration for the refgate CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file, selected with --config / -c.
//  3. Persistent command flags (--server, --timeout), applied by the cli package.
//
// # YAML schema
//
// Durations use timex.Duration, so they may be strings like "30s" or
// integer nanoseconds:
//
//	server_url: http://127.0.0.1:8080
//	request_timeout: 30s
//	upload_timeout: 5m
//	provider: s3
//	theme: auto
package config
