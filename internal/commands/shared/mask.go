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
	"os"

	"github.com/tombee/conductor-ntfy/internal/config"
	"github.com/tombee/conductor-ntfy/pkg/secrets"
)

// outputMasker hides credential values in error text written by the CLI.
var outputMasker = newOutputMasker()

func newOutputMasker() *secrets.Masker {
	m := secrets.NewMasker()
	m.AddSecretsFromEnv(os.Environ())
	return m
}

// RegisterProfileSecrets marks the credential values of p for masking.
func RegisterProfileSecrets(p config.Profile) {
	outputMasker.AddSecret(p.Password, p.BearerToken, p.QueryParameter)
}

// MaskSecrets replaces registered credential values in s.
func MaskSecrets(s string) string {
	return outputMasker.Mask(s)
}
