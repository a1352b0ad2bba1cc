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

	"github.com/tombee/conductor-ntfy/internal/config"
	"github.com/tombee/conductor-ntfy/internal/integration"
	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
)

// CompleteIntegrationArgs completes "[integration] [operation]" positional
// arguments: integration names first, then that integration's operations.
func CompleteIntegrationArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return integration.Names(), cobra.ShellCompDirectiveNoFileComp
		case 1:
			return operationNames(args[0]), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	})
}

// operationNames lists name's operations with their descriptions as hints.
func operationNames(name string) []string {
	t, err := transport.NewHTTPTransport(transport.HTTPTransportConfig{Client: config.Default().ClientConfig()})
	if err != nil {
		return nil
	}
	conn, err := integration.New(name, &api.ProviderConfig{Transport: t})
	if err != nil {
		return nil
	}
	typed, ok := conn.(api.TypedProvider)
	if !ok {
		return nil
	}

	var names []string
	for _, op := range typed.Operations() {
		names = append(names, op.Name+"\t"+op.Description)
	}
	return names
}
