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

package shared

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/tombee/conductor-ntfy/internal/config"
	"github.com/tombee/conductor-ntfy/internal/integration"
	"github.com/tombee/conductor-ntfy/internal/log"
	"github.com/tombee/conductor-ntfy/internal/operation"
	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
	"github.com/tombee/conductor-ntfy/internal/secrets"
	"github.com/tombee/conductor-ntfy/internal/tracing"
)

const closeTimeout = 5 * time.Second

// Runtime holds everything a command needs to run an operation: the loaded
// config, a logger, the secrets resolver and a registry of configured
// integrations.
type Runtime struct {
	Config   *config.Config
	Logger   *slog.Logger
	Secrets  *secrets.Resolver
	Profile  config.Profile
	Registry *operation.Registry

	tracer      *tracing.Provider
	metricsFile string
}

// RuntimeOptions configures NewRuntime.
type RuntimeOptions struct {
	// Credentials overrides profile fields from flags. Optional.
	Credentials *CredentialFlags

	// LogOutput receives log lines. Default: os.Stderr.
	LogOutput io.Writer
}

// NewRuntime loads the configuration, resolves the selected profile and
// builds the integration registry.
func NewRuntime(ctx context.Context, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := config.Load(GetConfigPath())
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}

	lc := cfg.LoggerConfig()
	if GetVerbose() {
		lc.Level = "debug"
	}
	lc.Output = opts.LogOutput
	if lc.Output == nil {
		lc.Output = os.Stderr
	}
	logger := log.New(lc)

	resolver, err := secrets.NewDefaultResolver("", "")
	if err != nil {
		return nil, NewConfigError("failed to initialize secrets", err)
	}

	profile, warnings, err := cfg.ResolveProfile(ctx, GetProfile(), resolver)
	if err != nil {
		return nil, NewConfigError("failed to resolve profile", err)
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	configToken := profile.BearerToken
	profile = opts.Credentials.Apply(profile)
	// Flag values may be references too.
	flagWarnings, err := profile.ResolveSecrets(ctx, resolver)
	if err != nil {
		return nil, NewConfigError("failed to resolve credential flags", err)
	}
	// The config token was already checked above.
	if profile.BearerToken != configToken {
		for _, w := range flagWarnings {
			logger.Warn(w)
		}
	}
	RegisterProfileSecrets(profile)

	httpTransport, err := transport.NewHTTPTransport(transport.HTTPTransportConfig{
		Client: cfg.ClientConfig(),
	})
	if err != nil {
		return nil, NewConfigError("failed to create HTTP transport", err)
	}
	if limiter := transport.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.Burst); limiter != nil {
		httpTransport.SetRateLimiter(limiter)
	}

	registry, err := integration.NewRegistry(&api.ProviderConfig{
		Transport:   httpTransport,
		Credentials: profile.CredentialData(),
		Logger:      logger,
	}, integration.Names()...)
	if err != nil {
		return nil, NewConfigError("invalid credentials", err)
	}

	v, _, _ := GetVersion()
	tracer, err := tracing.Setup(ctx, cfg.TracingConfig(v))
	if err != nil {
		return nil, NewConfigError("failed to set up tracing", err)
	}
	metricsFile := cfg.Telemetry.MetricsFile
	if GetMetricsFile() != "" {
		metricsFile = GetMetricsFile()
	}

	attrs := []any{
		slog.String(log.AuthTypeKey, profile.AuthType),
		slog.String("base_url", profile.BaseURL),
	}
	if profile.BearerToken != "" {
		attrs = append(attrs, slog.String("token", log.SanitizeAPIKey(profile.BearerToken)))
	}
	logger.Debug("runtime ready", attrs...)

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Secrets:     resolver,
		Profile:     profile,
		Registry:    registry,
		tracer:      tracer,
		metricsFile: metricsFile,
	}, nil
}

// Close flushes pending spans and writes the metrics file, if configured.
// Failures are logged; they never change the command's outcome.
func (r *Runtime) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	if err := r.tracer.Shutdown(ctx); err != nil {
		r.Logger.Warn("failed to flush traces", slog.String("error", err.Error()))
	}
	if r.metricsFile != "" {
		if err := operation.WriteMetricsFile(r.metricsFile); err != nil {
			r.Logger.Warn("failed to write metrics file",
				slog.String("path", r.metricsFile),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Execute runs "integration.operation" with inputs.
func (r *Runtime) Execute(ctx context.Context, reference string, inputs map[string]interface{}) (*operation.Result, error) {
	return r.Registry.Execute(ctx, reference, inputs)
}
