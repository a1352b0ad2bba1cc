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
	"github.com/spf13/pflag"

	"github.com/tombee/conductor-ntfy/internal/config"
)

// Global flag values - set by root command
var (
	verboseFlag bool
	quietFlag   bool
	jsonFlag    bool
	configFlag  string
	profileFlag string

	metricsFileFlag string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterFlagPointers returns pointers to flag variables for binding.
// Called by root command to register flags.
func RegisterFlagPointers() (verbose, quiet, json *bool, configPath, profile *string) {
	return &verboseFlag, &quietFlag, &jsonFlag, &configFlag, &profileFlag
}

// MetricsFileFlag returns the pointer bound to --metrics-file.
func MetricsFileFlag() *string {
	return &metricsFileFlag
}

// GetMetricsFile returns the --metrics-file value.
func GetMetricsFile() string {
	return metricsFileFlag
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verboseFlag
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quietFlag
}

// GetJSON returns the JSON output flag value
func GetJSON() bool {
	return jsonFlag
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return configFlag
}

// GetProfile returns the selected profile name. Empty selects the
// configured default profile.
func GetProfile() string {
	return profileFlag
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// SetConfigPathForTest sets the config path for testing purposes
func SetConfigPathForTest(path string) {
	configFlag = path
}

// ResetFlagsForTest restores global flags to their defaults.
func ResetFlagsForTest() {
	verboseFlag, quietFlag, jsonFlag = false, false, false
	configFlag, profileFlag = "", ""
	metricsFileFlag = ""
}

// Credential flag names.
const (
	FlagBaseURL   = "base-url"
	FlagAuthType  = "auth-type"
	FlagUsername  = "username"
	FlagPassword  = "password"
	FlagToken     = "token"
	FlagQueryAuth = "query-auth"
)

// CredentialFlags overrides profile credential fields from the command line.
type CredentialFlags struct {
	fs *pflag.FlagSet

	BaseURL   string
	AuthType  string
	Username  string
	Password  string
	Token     string
	QueryAuth string
}

// AddCredentialFlags registers the credential override flags on fs.
func AddCredentialFlags(fs *pflag.FlagSet) *CredentialFlags {
	f := &CredentialFlags{fs: fs}
	fs.StringVar(&f.BaseURL, FlagBaseURL, "", "ntfy server URL (overrides profile base_url)")
	fs.StringVar(&f.AuthType, FlagAuthType, "", "Auth type: noAuth, basicAuth, bearerAuth, queryAuth")
	fs.StringVar(&f.Username, FlagUsername, "", "Username for basicAuth")
	fs.StringVar(&f.Password, FlagPassword, "", "Password for basicAuth (supports $secret:key and ${ENV})")
	fs.StringVar(&f.Token, FlagToken, "", "Access token for bearerAuth (supports $secret:key and ${ENV})")
	fs.StringVar(&f.QueryAuth, FlagQueryAuth, "", "Value of the auth query parameter for queryAuth")
	return f
}

// Apply returns p with every explicitly set flag applied on top.
func (f *CredentialFlags) Apply(p config.Profile) config.Profile {
	if f == nil || f.fs == nil {
		return p
	}
	overrides := []struct {
		name  string
		value string
		dst   *string
	}{
		{FlagBaseURL, f.BaseURL, &p.BaseURL},
		{FlagAuthType, f.AuthType, &p.AuthType},
		{FlagUsername, f.Username, &p.Username},
		{FlagPassword, f.Password, &p.Password},
		{FlagToken, f.Token, &p.BearerToken},
		{FlagQueryAuth, f.QueryAuth, &p.QueryParameter},
	}
	for _, o := range overrides {
		if f.fs.Changed(o.name) {
			*o.dst = o.value
		}
	}
	return p
}
