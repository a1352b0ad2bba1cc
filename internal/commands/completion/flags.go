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
	"github.com/spf13/cobra"
)

// CompleteAuthTypes provides completion for --auth-type flag values.
func CompleteAuthTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		types := []string{
			"noAuth\tAnonymous access",
			"basicAuth\tUsername and password",
			"bearerAuth\tAccess token (tk_...)",
			"queryAuth\tPre-encoded ?auth= query parameter",
		}
		return types, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteSecretsBackend provides completion for --backend flag values.
func CompleteSecretsBackend(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		backends := []string{
			"keychain\tSystem keychain (macOS/Linux)",
			"file\tEncrypted file storage",
		}
		return backends, cobra.ShellCompDirectiveNoFileComp
	})
}
