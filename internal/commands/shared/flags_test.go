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
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-ntfy/internal/config"
)

func TestCredentialFlags_Apply(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddCredentialFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--base-url", "https://ntfy.example.com",
		"--auth-type", "bearerAuth",
		"--token", "tk_flag",
	}))

	base := config.Profile{
		BaseURL:  "https://ntfy.sh",
		AuthType: "basicAuth",
		Username: "phil",
		Password: "pw",
	}
	got := flags.Apply(base)

	assert.Equal(t, "https://ntfy.example.com", got.BaseURL)
	assert.Equal(t, "bearerAuth", got.AuthType)
	assert.Equal(t, "tk_flag", got.BearerToken)
	assert.Equal(t, "phil", got.Username, "unset flags keep profile values")
	assert.Equal(t, "pw", got.Password)
}

func TestCredentialFlags_ExplicitEmptyOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddCredentialFlags(fs)
	require.NoError(t, fs.Parse([]string{"--query-auth="}))

	got := flags.Apply(config.Profile{QueryParameter: "from-profile"})
	assert.Empty(t, got.QueryParameter)
}

func TestCredentialFlags_NilApply(t *testing.T) {
	var flags *CredentialFlags
	p := config.Profile{BaseURL: "https://ntfy.sh"}
	assert.Equal(t, p, flags.Apply(p))
}

func TestGlobalFlags(t *testing.T) {
	t.Cleanup(ResetFlagsForTest)

	verbose, quiet, jsonOut, configPath, profile := RegisterFlagPointers()
	*verbose = true
	*quiet = true
	*jsonOut = true
	*configPath = "/tmp/config.yaml"
	*profile = "home"

	assert.True(t, GetVerbose())
	assert.True(t, GetQuiet())
	assert.True(t, GetJSON())
	assert.Equal(t, "/tmp/config.yaml", GetConfigPath())
	assert.Equal(t, "home", GetProfile())

	ResetFlagsForTest()
	assert.False(t, GetVerbose())
	assert.Empty(t, GetProfile())
}
