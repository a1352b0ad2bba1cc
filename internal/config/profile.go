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

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
	conductorerrors "github.com/tombee/conductor-ntfy/pkg/errors"
)

var (
	// secretRefPattern matches $secret:key references in config values
	secretRefPattern = regexp.MustCompile(`^\$secret:(.+)$`)

	// envRefPattern matches ${VAR} references in config values
	envRefPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

	// plaintextTokenPattern matches ntfy access tokens
	plaintextTokenPattern = regexp.MustCompile(`^tk_`)
)

// SecretGetter looks up a stored secret by key.
type SecretGetter interface {
	Get(ctx context.Context, key string) (string, error)
}

// Profile holds one named set of ntfy credentials.
type Profile struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	AuthType       string `yaml:"auth_type,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Password       string `yaml:"password,omitempty"`
	BearerToken    string `yaml:"bearer_token,omitempty"`
	QueryParameter string `yaml:"query_parameter,omitempty"`
}

// Validate checks the profile's base URL and auth type. Variant-specific
// fields are checked when the credential is built, after secrets resolve.
func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BaseURL, validation.By(validURL)),
		validation.Field(&p.AuthType, validation.In(
			string(ntfy.AuthTypeNone),
			string(ntfy.AuthTypeBasic),
			string(ntfy.AuthTypeBearer),
			string(ntfy.AuthTypeQuery),
		)),
	)
}

// CredentialData returns the profile as an ntfy credential record.
func (p Profile) CredentialData() map[string]string {
	data := map[string]string{
		ntfy.CredentialBaseURL:  p.BaseURL,
		ntfy.CredentialAuthType: p.AuthType,
	}
	set := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}
	set(ntfy.CredentialUsername, p.Username)
	set(ntfy.CredentialPassword, p.Password)
	set(ntfy.CredentialBearerToken, p.BearerToken)
	set(ntfy.CredentialQueryParameter, p.QueryParameter)
	return data
}

// ResolveSecrets replaces $secret:key and ${VAR} references in the
// profile's secret fields. It returns warnings for access tokens stored in
// plaintext.
func (p *Profile) ResolveSecrets(ctx context.Context, getter SecretGetter) (warnings []string, err error) {
	if plaintextTokenPattern.MatchString(p.BearerToken) {
		warnings = append(warnings,
			"Plaintext access token detected. Consider storing it with: conductor-ntfy secrets set <key>")
	}

	fields := []struct {
		key   string
		value *string
	}{
		{"username", &p.Username},
		{"password", &p.Password},
		{"bearer_token", &p.BearerToken},
		{"query_parameter", &p.QueryParameter},
	}
	for _, f := range fields {
		resolved, err := ResolveSecretReference(ctx, getter, *f.value)
		if err != nil {
			return warnings, &conductorerrors.ConfigError{
				Key:    f.key,
				Reason: "failed to resolve secret reference",
				Cause:  err,
			}
		}
		*f.value = resolved
	}

	return warnings, nil
}

// ResolveSecretReference resolves a $secret:key reference through getter or
// a ${VAR} reference from the environment. Other values are returned as-is.
func ResolveSecretReference(ctx context.Context, getter SecretGetter, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	if m := envRefPattern.FindStringSubmatch(value); len(m) == 2 {
		v, ok := os.LookupEnv(m[1])
		if !ok {
			return "", fmt.Errorf("environment variable %s is not set", m[1])
		}
		return v, nil
	}

	matches := secretRefPattern.FindStringSubmatch(value)
	if len(matches) != 2 {
		return value, nil
	}

	key := matches[1]
	if getter == nil {
		return "", errors.New("no secret backend configured")
	}

	secretValue, err := getter.Get(ctx, key)
	if err != nil {
		return "", &conductorerrors.ConfigError{
			Key:    key,
			Reason: fmt.Sprintf("failed to resolve secret reference %q", key),
			Cause:  err,
		}
	}

	return secretValue, nil
}

// Profile returns the named profile, or the default profile when name is
// empty.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, &conductorerrors.NotFoundError{Resource: "profile", ID: name}
	}
	return p, nil
}

// ResolveProfile returns the named profile with its secret references
// resolved.
func (c *Config) ResolveProfile(ctx context.Context, name string, getter SecretGetter) (Profile, []string, error) {
	p, err := c.Profile(name)
	if err != nil {
		return Profile{}, nil, err
	}

	warnings, err := p.ResolveSecrets(ctx, getter)
	if err != nil {
		if name == "" {
			name = c.DefaultProfile
		}
		return Profile{}, warnings, &conductorerrors.ConfigError{
			Key:    fmt.Sprintf("profiles.%s", name),
			Reason: "failed to resolve profile secrets",
			Cause:  err,
		}
	}
	return p, warnings, nil
}
