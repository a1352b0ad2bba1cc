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

// Package secrets implements the secrets command.
package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/conductor-ntfy/internal/commands/completion"
	"github.com/tombee/conductor-ntfy/internal/commands/shared"
	"github.com/tombee/conductor-ntfy/internal/secrets"
)

// resolverFactory builds the resolver used by every subcommand.
var resolverFactory = func() (*secrets.Resolver, error) {
	return secrets.NewDefaultResolver("", "")
}

// NewCommand creates the secrets command for secret management.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage stored ntfy credentials (passwords, access tokens)",
		Long: `Manage secrets referenced from profiles as $secret:<key>.

Secrets are resolved from a tiered backend system with automatic fallback:
  1. Environment variables NTFY_SECRET_<KEY> (highest priority, read-only)
  2. System keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)
  3. Encrypted file (needs NTFY_MASTER_KEY; for headless servers)

Examples:
  conductor-ntfy secrets set ntfy/home/token
  conductor-ntfy secrets get ntfy/home/token
  conductor-ntfy secrets delete ntfy/home/token`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret securely",
		Long: `Store a secret in the specified backend.

The secret value can be provided via:
  - Interactive prompt (hidden input, default)
  - Standard input: echo "tk_..." | conductor-ntfy secrets set <key>

Backend Selection:
  --backend <name>  Target specific backend (keychain, file)
  Default: First available writable backend (usually keychain)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := validateSecretKey(key); err != nil {
				return shared.NewInvalidInputError("invalid secret key", err)
			}

			value, err := readSecretValue(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to read secret value: %w", err)
			}
			if value == "" {
				return shared.NewInvalidInputError("secret value cannot be empty", nil)
			}

			resolver, err := resolverFactory()
			if err != nil {
				return err
			}

			if err := resolver.Set(contextOf(cmd), key, value, backend); err != nil {
				if errors.Is(err, secrets.ErrBackendUnavailable) {
					return fmt.Errorf("%w\n\nTry:\n  1. Use --backend to specify a different backend\n  2. Export %s=<master key> to enable the file backend\n  3. Set environment variable: export %s=<value>",
						err, secrets.MasterKeyEnv, secrets.EnvVarName(key))
				}
				return fmt.Errorf("failed to set secret: %w", err)
			}

			used := backend
			if used == "" {
				used = firstWritable(resolver)
			}
			if !shared.GetQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "Secret stored successfully in %s backend\n", used)
				fmt.Fprintf(cmd.OutOrStdout(), "Reference it from a profile as: $secret:%s\n", key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain, file)")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteSecretsBackend)

	return cmd
}

func newGetCommand() *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Retrieve a secret value",
		Long: `Retrieve a secret value from any available backend.

By default, the value is masked. Use --unmask to show the full value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			resolver, err := resolverFactory()
			if err != nil {
				return err
			}

			value, err := resolver.Get(contextOf(cmd), key)
			if err != nil {
				if errors.Is(err, secrets.ErrSecretNotFound) {
					return fmt.Errorf("secret not found: %q\n\nSet it with: conductor-ntfy secrets set %s", key, key)
				}
				return fmt.Errorf("failed to get secret: %w", err)
			}

			if unmask {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (use --unmask to show full value)\n", maskSecret(value))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unmask, "unmask", false, "Show full value (not masked)")

	return cmd
}

func newDeleteCommand() *cobra.Command {
	var (
		backend string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret",
		Long: `Remove a secret from the specified backend, or from every writable
backend holding it.

Requires confirmation unless --force is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete secret %q? [y/N]: ", key)
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "y" && response != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion canceled")
					return nil
				}
			}

			resolver, err := resolverFactory()
			if err != nil {
				return err
			}

			if err := resolver.Delete(contextOf(cmd), key, backend); err != nil {
				if errors.Is(err, secrets.ErrSecretNotFound) {
					return fmt.Errorf("secret not found: %q", key)
				}
				if errors.Is(err, secrets.ErrReadOnlyBackend) {
					return errors.New("cannot delete from read-only backend (environment variables)")
				}
				return fmt.Errorf("failed to delete secret: %w", err)
			}

			if !shared.GetQuiet() {
				fmt.Fprintf(cmd.OutOrStdout(), "Secret %q deleted successfully\n", key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain, file)")
	_ = cmd.RegisterFlagCompletionFunc("backend", completion.CompleteSecretsBackend)
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")

	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func firstWritable(r *secrets.Resolver) string {
	for _, b := range r.Backends() {
		if ro, ok := b.(secrets.ReadOnlyBackend); !ok || !ro.ReadOnly() {
			return b.Name()
		}
	}
	return ""
}

// readSecretValue reads a secret value from a pipe or prompts on the
// terminal with hidden input.
func readSecretValue(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Enter secret value (hidden): ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// maskSecret masks a secret value for display.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	// Show first 4 and last 4 characters
	return value[:4] + "..." + value[len(value)-4:]
}

// validateSecretKey validates a secret key format.
func validateSecretKey(key string) error {
	if key == "" {
		return errors.New("secret key cannot be empty")
	}

	if strings.ContainsAny(key, " \t") {
		return errors.New("secret key cannot contain spaces")
	}

	// Keys should use forward slashes, not backslashes
	if strings.Contains(key, "\\") {
		return errors.New("secret key should use forward slashes (/), not backslashes (\\)")
	}

	return nil
}
