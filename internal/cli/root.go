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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/conductor-ntfy/internal/commands/completion"
	"github.com/tombee/conductor-ntfy/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for conductor-ntfy
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conductor-ntfy",
		Short: "conductor-ntfy - push notifications through ntfy",
		Long: `conductor-ntfy publishes push notifications to an ntfy server
(https://ntfy.sh or self-hosted) and checks ntfy credentials.

Credentials come from named profiles in ~/.config/conductor-ntfy/config.yaml
and can be overridden per invocation with --base-url, --auth-type and the
matching credential flags.

Run 'conductor-ntfy describe' to see every operation and its parameters.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, quiet, json, config, profile := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(quiet, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/conductor-ntfy/config.yaml)")
	cmd.PersistentFlags().StringVarP(profile, "profile", "p", "", "Credential profile (default: config default_profile)")
	cmd.PersistentFlags().StringVar(shared.MetricsFileFlag(), "metrics-file", "", "Write Prometheus metrics to this file on exit")
	_ = cmd.RegisterFlagCompletionFunc("profile", completion.CompleteProfileNames)

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
