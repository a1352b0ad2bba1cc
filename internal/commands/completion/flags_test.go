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

package completion

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func completionValues(completions []string) []string {
	values := make([]string, 0, len(completions))
	for _, comp := range completions {
		value, _, _ := strings.Cut(comp, "\t")
		values = append(values, value)
	}
	return values
}

func TestCompleteAuthTypes(t *testing.T) {
	completions, directive := CompleteAuthTypes(nil, nil, "")

	got := strings.Join(completionValues(completions), ",")
	if got != "noAuth,basicAuth,bearerAuth,queryAuth" {
		t.Errorf("unexpected auth types %q", got)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("expected ShellCompDirectiveNoFileComp, got %v", directive)
	}
}

func TestCompleteSecretsBackend(t *testing.T) {
	completions, _ := CompleteSecretsBackend(nil, nil, "")

	got := strings.Join(completionValues(completions), ",")
	if got != "keychain,file" {
		t.Errorf("unexpected backends %q", got)
	}
}

func TestCompleteIntegrationArgs(t *testing.T) {
	completions, _ := CompleteIntegrationArgs(nil, nil, "")
	if got := strings.Join(completions, ","); got != "ntfy" {
		t.Errorf("unexpected integrations %q", got)
	}

	completions, _ = CompleteIntegrationArgs(nil, []string{"ntfy"}, "")
	ops := completionValues(completions)
	if len(ops) != 2 || ops[0] != "publish" || ops[1] != "test_credentials" {
		t.Errorf("unexpected operations %v", ops)
	}

	completions, _ = CompleteIntegrationArgs(nil, []string{"unknown"}, "")
	if len(completions) != 0 {
		t.Errorf("expected no operations for unknown integration, got %v", completions)
	}

	completions, _ = CompleteIntegrationArgs(nil, []string{"ntfy", "publish"}, "")
	if len(completions) != 0 {
		t.Errorf("expected no completions past the operation, got %v", completions)
	}
}

func TestFlagCompletions_HaveDescriptions(t *testing.T) {
	testCases := []struct {
		name string
		fn   func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective)
	}{
		{"AuthTypes", CompleteAuthTypes},
		{"SecretsBackend", CompleteSecretsBackend},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			completions, _ := tc.fn(nil, nil, "")

			for _, comp := range completions {
				if !strings.Contains(comp, "\t") {
					t.Errorf("%s completion %q should have a description separated by tab", tc.name, comp)
				}
			}
		})
	}
}
