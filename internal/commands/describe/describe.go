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

// Package describe implements the describe command, which prints an
// integration's operations, parameters and credential fields.
package describe

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tombee/conductor-ntfy/internal/commands/completion"
	"github.com/tombee/conductor-ntfy/internal/commands/shared"
	"github.com/tombee/conductor-ntfy/internal/config"
	"github.com/tombee/conductor-ntfy/internal/integration"
	"github.com/tombee/conductor-ntfy/internal/operation/api"
	"github.com/tombee/conductor-ntfy/internal/operation/transport"
)

// Description is the JSON form of describe output.
type Description struct {
	Integration string                 `json:"integration"`
	Operations  []OperationDescription `json:"operations"`
	Credentials *api.OperationSchema   `json:"credentials,omitempty"`
}

// OperationDescription pairs an operation with its schema.
type OperationDescription struct {
	api.OperationInfo
	Schema *api.OperationSchema `json:"schema,omitempty"`
}

// NewCommand creates the describe command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [integration] [operation]",
		Short: "Describe integration operations and credential fields",
		Long: `Print the operations an integration offers, the parameters each one
accepts and the fields its credentials use.

Examples:
  conductor-ntfy describe
  conductor-ntfy describe ntfy publish
  conductor-ntfy describe ntfy --json`,
		Args:              cobra.MaximumNArgs(2),
		ValidArgsFunction: completion.CompleteIntegrationArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "ntfy"
			if len(args) > 0 {
				name = args[0]
			}
			opFilter := ""
			if len(args) > 1 {
				opFilter = args[1]
			}

			desc, err := Describe(name, opFilter)
			if err != nil {
				return shared.NewInvalidInputError("describe failed", err)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), desc)
			}
			Render(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

// Describe builds the description of the named integration. A non-empty
// opFilter restricts it to one operation.
func Describe(name, opFilter string) (*Description, error) {
	// Describing never sends requests, so a default transport and anonymous
	// credentials are enough to instantiate the integration.
	t, err := transport.NewHTTPTransport(transport.HTTPTransportConfig{Client: config.Default().ClientConfig()})
	if err != nil {
		return nil, err
	}
	conn, err := integration.New(name, &api.ProviderConfig{Transport: t})
	if err != nil {
		return nil, err
	}

	typed, ok := conn.(api.TypedProvider)
	if !ok {
		return nil, fmt.Errorf("integration %q does not describe its operations", name)
	}

	desc := &Description{Integration: name}
	for _, op := range typed.Operations() {
		if opFilter != "" && op.Name != opFilter {
			continue
		}
		desc.Operations = append(desc.Operations, OperationDescription{
			OperationInfo: op,
			Schema:        typed.OperationSchema(op.Name),
		})
	}
	if opFilter != "" && len(desc.Operations) == 0 {
		return nil, fmt.Errorf("integration %q has no operation %q", name, opFilter)
	}

	if cp, ok := conn.(api.CredentialProvider); ok && opFilter == "" {
		desc.Credentials = cp.CredentialSchema()
	}
	return desc, nil
}

// Render writes desc as tables.
func Render(w io.Writer, desc *Description) {
	for _, op := range desc.Operations {
		fmt.Fprintf(w, "%s.%s: %s\n", desc.Integration, op.Name, op.Description)
		if op.Schema != nil && len(op.Schema.Parameters) > 0 {
			fmt.Fprintln(w, parameterTable(op.Schema.Parameters))
		}
		if op.Schema != nil && len(op.Schema.ResponseFields) > 0 {
			fmt.Fprintln(w, responseTable(op.Schema.ResponseFields))
		}
		fmt.Fprintln(w)
	}

	if desc.Credentials != nil {
		fmt.Fprintf(w, "%s credentials: %s\n", desc.Integration, desc.Credentials.Description)
		fmt.Fprintln(w, parameterTable(desc.Credentials.Parameters))
	}
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

func parameterTable(params []api.ParameterInfo) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Name", "Type", "Required", "Default", "Shown When", "Description"})
	for _, p := range params {
		required := ""
		if p.Required {
			required = "yes"
		}
		tw.AppendRow(table.Row{
			p.Name,
			typeLabel(p),
			required,
			defaultLabel(p),
			displayWhenLabel(p.DisplayWhen),
			p.Description,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignCenter},
		{Number: 6, WidthMax: 60},
	})
	return tw.Render()
}

func responseTable(fields []api.ResponseFieldInfo) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Response Field", "Type", "Description"})
	for _, f := range fields {
		tw.AppendRow(table.Row{f.Name, f.Type, f.Description})
	}
	return tw.Render()
}

func typeLabel(p api.ParameterInfo) string {
	if len(p.Options) == 0 {
		return p.Type
	}
	values := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		values = append(values, o.Value)
	}
	return p.Type + " (" + strings.Join(values, "|") + ")"
}

func defaultLabel(p api.ParameterInfo) string {
	if p.Secret || p.Default == nil {
		return ""
	}
	return fmt.Sprint(p.Default)
}

func displayWhenLabel(when map[string][]interface{}) string {
	if len(when) == 0 {
		return ""
	}
	keys := make([]string, 0, len(when))
	for k := range when {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		values := make([]string, 0, len(when[k]))
		for _, v := range when[k] {
			values = append(values, fmt.Sprint(v))
		}
		parts = append(parts, k+"="+strings.Join(values, "|"))
	}
	return strings.Join(parts, ", ")
}
