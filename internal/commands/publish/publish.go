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

// Package publish implements the publish command.
package publish

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/conductor-ntfy/internal/commands/completion"
	"github.com/tombee/conductor-ntfy/internal/commands/shared"
	"github.com/tombee/conductor-ntfy/internal/integration/ntfy"
)

type options struct {
	message     string
	headers     []string
	jsonHeaders string
	transform   string
	credentials *shared.CredentialFlags
}

// NewCommand creates the publish command.
func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "publish <topic> [message]",
		Short: "Publish a message to an ntfy topic",
		Long: `Publish a message to a topic on the configured ntfy server.

The message is taken from the second argument, --message, or standard
input when the message is "-".

Additional ntfy headers (X-Title, X-Priority, X-Tags, ...) can be given as
repeated --header Name=Value flags or as one JSON object with --json-headers.
The two forms cannot be combined.

Examples:
  conductor-ntfy publish alerts "Backup finished"
  conductor-ntfy publish alerts -m "Disk full" --header X-Priority=5 --header X-Tags=warning
  conductor-ntfy publish alerts "Deployed" --json-headers '{"X-Title":"CI"}'
  echo "from stdin" | conductor-ntfy publish alerts -
  conductor-ntfy publish alerts hi --profile home --transform .id`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Message body")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "Additional header as Name=Value (repeatable)")
	cmd.Flags().StringVar(&opts.jsonHeaders, "json-headers", "", "Additional headers as a JSON object of strings")
	cmd.Flags().StringVar(&opts.transform, "transform", "", "jq expression applied to the ntfy response")
	opts.credentials = shared.AddCredentialFlags(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc(shared.FlagAuthType, completion.CompleteAuthTypes)

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	inputs, err := buildInputs(cmd.InOrStdin(), opts, args)
	if err != nil {
		return shared.NewInvalidInputError("invalid publish input", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := shared.NewRuntime(ctx, shared.RuntimeOptions{
		Credentials: opts.credentials,
		LogOutput:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	result, err := rt.Execute(ctx, "ntfy."+ntfy.OperationPublish, inputs)
	if err != nil {
		if shared.GetJSON() {
			_ = shared.EmitJSONError(cmd.OutOrStdout(), "publish", err)
		}
		return shared.NewExecutionError("publish failed", err)
	}

	if shared.GetJSON() {
		return shared.EmitJSONResult(cmd.OutOrStdout(), "publish", result)
	}
	if shared.GetQuiet() {
		return nil
	}

	if msg, ok := result.Response.(*ntfy.MessageResponse); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Published message %s to topic %s\n", msg.ID, msg.Topic)
		return nil
	}
	return shared.EmitJSON(cmd.OutOrStdout(), result.Response)
}

// buildInputs converts command-line arguments into publish inputs.
func buildInputs(stdin io.Reader, opts *options, args []string) (map[string]interface{}, error) {
	message := opts.message
	if len(args) == 2 {
		if message != "" {
			return nil, fmt.Errorf("message given both as argument and --message")
		}
		message = args[1]
	}
	if message == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read message from stdin: %w", err)
		}
		message = strings.TrimRight(string(data), "\n")
	}

	inputs := map[string]interface{}{
		ntfy.InputTopic:                 args[0],
		ntfy.InputMessage:               message,
		ntfy.InputSendAdditionalHeaders: false,
	}
	if opts.transform != "" {
		inputs[ntfy.InputResponseTransform] = opts.transform
	}

	switch {
	case len(opts.headers) > 0 && opts.jsonHeaders != "":
		return nil, fmt.Errorf("--header and --json-headers cannot be combined")
	case len(opts.headers) > 0:
		entries, err := parseHeaderFlags(opts.headers)
		if err != nil {
			return nil, err
		}
		inputs[ntfy.InputSendAdditionalHeaders] = true
		inputs[ntfy.InputSpecifyHeadersUsing] = string(ntfy.HeaderModeKeypair)
		inputs[ntfy.InputHeaderFields] = entries
	case opts.jsonHeaders != "":
		inputs[ntfy.InputSendAdditionalHeaders] = true
		inputs[ntfy.InputSpecifyHeadersUsing] = string(ntfy.HeaderModeJSON)
		inputs[ntfy.InputJSONHeaders] = opts.jsonHeaders
	}

	return inputs, nil
}

// parseHeaderFlags splits Name=Value pairs. Values may contain '='.
func parseHeaderFlags(flags []string) ([]ntfy.HeaderEntry, error) {
	entries := make([]ntfy.HeaderEntry, 0, len(flags))
	for _, h := range flags {
		name, value, ok := strings.Cut(h, "=")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: expected Name=Value", h)
		}
		entries = append(entries, ntfy.HeaderEntry{Name: strings.TrimSpace(name), Value: value})
	}
	return entries, nil
}
