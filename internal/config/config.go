// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the conductor-ntfy configuration file: logging, the
// shared HTTP client settings and named ntfy credential profiles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
	"github.com/tombee/conductor-ntfy/internal/log"
	"github.com/tombee/conductor-ntfy/internal/tracing"
	"github.com/tombee/conductor-ntfy/pkg/httpclient"
	conductorerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// DefaultProfileName is the profile used when none is selected.
const DefaultProfileName = "default"

// Config represents the complete conductor-ntfy configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`

	// DefaultProfile names the profile used when --profile is not given.
	// Environment: NTFY_PROFILE
	DefaultProfile string `yaml:"default_profile,omitempty"`

	// Profiles maps profile names to ntfy credentials.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Environment: LOG_LEVEL
	// Default: info
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Environment: LOG_FORMAT
	// Default: text
	Format string `yaml:"format"`

	// AddSource adds source file and line information to logs.
	// Environment: LOG_SOURCE
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// HTTPConfig configures the transport shared by all ntfy requests.
type HTTPConfig struct {
	// Timeout is the total request timeout.
	// Environment: NTFY_HTTP_TIMEOUT
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent on every request.
	// Default: conductor-ntfy/1.0
	UserAgent string `yaml:"user_agent"`

	// RateLimit is the number of requests per second. Zero disables limiting.
	// Environment: NTFY_RATE_LIMIT
	RateLimit float64 `yaml:"rate_limit"`

	// Burst is the rate limiter bucket size.
	// Default: 1
	Burst int `yaml:"burst"`

	// TLSInsecure disables certificate verification for self-signed instances.
	TLSInsecure bool `yaml:"tls_insecure,omitempty"`
}

// TelemetryConfig configures trace export and the metrics textfile.
type TelemetryConfig struct {
	// TracesExporter is none, otlp (HTTP), otlp-grpc or console.
	// Environment: OTEL_TRACES_EXPORTER, with OTEL_EXPORTER_OTLP_PROTOCOL=grpc
	// selecting otlp-grpc. OTEL_EXPORTER_OTLP_ENDPOINT alone selects otlp.
	// Default: none
	TracesExporter string `yaml:"traces_exporter,omitempty"`

	// TracesEndpoint is the collector URL. Empty defers to the standard
	// OTEL_EXPORTER_OTLP_* variables read by the exporter.
	TracesEndpoint string `yaml:"traces_endpoint,omitempty"`

	// TracesInsecure disables TLS towards the collector.
	TracesInsecure bool `yaml:"traces_insecure,omitempty"`

	// MetricsFile receives operation metrics in Prometheus text format
	// after each command.
	// Environment: NTFY_METRICS_FILE
	MetricsFile string `yaml:"metrics_file,omitempty"`
}

// Default returns a configuration with every default applied and a single
// anonymous profile for the public ntfy.sh instance.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: httpclient.DefaultUserAgent,
			Burst:     1,
		},
		DefaultProfile: DefaultProfileName,
		Profiles: map[string]Profile{
			DefaultProfileName: {
				BaseURL:  ntfy.DefaultBaseURL,
				AuthType: string(ntfy.AuthTypeNone),
			},
		},
	}
}

// Load reads configuration from configPath, applies environment overrides and
// validates the result. An empty configPath selects the XDG location; a
// missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	// Decode into an empty config so the built-in anonymous profile is only
	// added when the file defines no profiles at all.
	cfg := &Config{}

	explicit := configPath != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return nil, &conductorerrors.ConfigError{
				Key:    "config_file",
				Reason: "failed to locate config directory",
				Cause:  err,
			}
		}
		configPath = p
	}

	if err := cfg.loadFromFile(configPath); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, &conductorerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	// Apply defaults to any zero values (handles minimal configs)
	cfg.applyDefaults()

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &conductorerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills in zero values so minimal files (for example a single
// profile) work without restating every section. A file defining exactly one
// profile and no default_profile uses that profile as the default.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = defaults.HTTP.UserAgent
	}
	if c.HTTP.Burst == 0 {
		c.HTTP.Burst = defaults.HTTP.Burst
	}

	if len(c.Profiles) == 0 {
		c.Profiles = defaults.Profiles
	}
	if c.DefaultProfile == "" {
		c.DefaultProfile = DefaultProfileName
		if len(c.Profiles) == 1 {
			for name := range c.Profiles {
				c.DefaultProfile = name
			}
		}
	}
	for name, p := range c.Profiles {
		if p.BaseURL == "" {
			p.BaseURL = ntfy.DefaultBaseURL
		}
		if p.AuthType == "" {
			p.AuthType = string(ntfy.AuthTypeNone)
		}
		c.Profiles[name] = p
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_SOURCE"); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	if val := os.Getenv("NTFY_HTTP_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.HTTP.Timeout = d
		}
	}
	if val := os.Getenv("NTFY_RATE_LIMIT"); val != "" {
		if rps, err := strconv.ParseFloat(val, 64); err == nil {
			c.HTTP.RateLimit = rps
		}
	}

	if val := os.Getenv("NTFY_PROFILE"); val != "" {
		c.DefaultProfile = val
	}

	if val := os.Getenv("OTEL_TRACES_EXPORTER"); val != "" {
		c.Telemetry.TracesExporter = strings.ToLower(val)
	} else if c.Telemetry.TracesExporter == "" && os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		c.Telemetry.TracesExporter = tracing.ExporterOTLP
	}
	if c.Telemetry.TracesExporter == tracing.ExporterOTLP && os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
		c.Telemetry.TracesExporter = tracing.ExporterOTLPGRPC
	}
	if val := os.Getenv("NTFY_METRICS_FILE"); val != "" {
		c.Telemetry.MetricsFile = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	err := validation.Errors{
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
			validation.Field(&c.Log.Format, validation.In("json", "text")),
		),
		"http": validation.ValidateStruct(&c.HTTP,
			validation.Field(&c.HTTP.Timeout, validation.Required, validation.Min(time.Duration(0)).Exclusive()),
			validation.Field(&c.HTTP.UserAgent, validation.Required),
			validation.Field(&c.HTTP.RateLimit, validation.Min(0.0)),
			validation.Field(&c.HTTP.Burst, validation.Required, validation.Min(1)),
		),
		"telemetry": validation.ValidateStruct(&c.Telemetry,
			validation.Field(&c.Telemetry.TracesExporter, validation.In(exporterNames()...)),
			validation.Field(&c.Telemetry.TracesEndpoint, validation.By(validURL)),
		),
		"default_profile": validation.Validate(c.DefaultProfile,
			validation.Required,
			validation.By(func(interface{}) error {
				if _, ok := c.Profiles[c.DefaultProfile]; !ok {
					return fmt.Errorf("profile %q is not defined", c.DefaultProfile)
				}
				return nil
			}),
		),
	}

	for name, p := range c.Profiles {
		if perr := p.Validate(); perr != nil {
			err["profiles."+name] = perr
		}
	}

	if filtered := err.Filter(); filtered != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, filtered)
	}
	return nil
}

// LoggerConfig converts the log section to a log.Config, with NTFY_DEBUG and
// NTFY_LOG_LEVEL applied on top.
func (c *Config) LoggerConfig() *log.Config {
	lc := log.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = log.Format(c.Log.Format)
	lc.AddSource = c.Log.AddSource
	log.ApplyEnv(lc)
	return lc
}

// ClientConfig converts the http section to an httpclient.Config.
func (c *Config) ClientConfig() httpclient.Config {
	return httpclient.Config{
		Timeout:     c.HTTP.Timeout,
		UserAgent:   c.HTTP.UserAgent,
		TLSInsecure: c.HTTP.TLSInsecure,
	}
}

// TracingConfig converts the telemetry section to a tracing.Config.
func (c *Config) TracingConfig(serviceVersion string) tracing.Config {
	return tracing.Config{
		Exporter:       c.Telemetry.TracesExporter,
		Endpoint:       c.Telemetry.TracesEndpoint,
		Insecure:       c.Telemetry.TracesInsecure,
		ServiceName:    AppName,
		ServiceVersion: serviceVersion,
	}
}

func exporterNames() []interface{} {
	names := make([]interface{}, 0, len(tracing.Exporters))
	for _, name := range tracing.Exporters {
		names = append(names, name)
	}
	return names
}

func validURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
