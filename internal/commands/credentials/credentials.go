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

// Package credentials implements the credentials command.
package credentials

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/conductor-ntfy/internal/commands/completion"
	"github.com/tombee/conductor-ntfy/internal/commands/shared"
	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
)

// NewCommand creates the credentials command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Work with ntfy credentials",
	}

	cmd.AddCommand(newTestCommand())

	return cmd
}

func newTestCommand() *cobra.Command {
	var creds *shared.CredentialFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check credentials against the server health endpoint",
		Long: `Send an authenticated GET /v1/health to the configured ntfy server.

The command succeeds when the server answers with a 2xx status and does not
report itself unhealthy.

Examples:
  conductor-ntfy credentials test
  conductor-ntfy credentials test --profile home
  conductor-ntfy credentials test --base-url https://ntfy.example.com --auth-type bearerAuth --token '$secret:ntfy/token'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := shared.NewRuntime(ctx, shared.RuntimeOptions{
				Credentials: creds,
				LogOutput:   cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			result, err := rt.Execute(ctx, "ntfy."+ntfy.OperationTestCredentials, nil)
			if err != nil {
				if shared.GetJSON() {
					_ = shared.EmitJSONError(cmd.OutOrStdout(), "credentials test", err)
				}
				return shared.NewExecutionError("credential test failed", err)
			}

			if shared.GetJSON() {
				return shared.EmitJSONResult(cmd.OutOrStdout(), "credentials test", result)
			}
			if !shared.GetQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "Credentials OK: %s is healthy (%s)\n",
					rt.Profile.BaseURL, rt.Profile.AuthType)
			}
			return nil
		},
	}

	creds = shared.AddCredentialFlags(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc(shared.FlagAuthType, completion.CompleteAuthTypes)

	return cmd
}
