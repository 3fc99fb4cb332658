package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/nodeflux/pkg/api"
)

func newNodesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect and run catalogued nodes",
	}
	cmd.AddCommand(newNodesListCmd(a), newNodesRunCmd(a))
	return cmd
}

func newNodesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the node catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDispatcher(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			renderNodes(cmd.OutOrStdout(), d.ListNodes(cmd.Context()))
			return nil
		},
	}
}

func renderNodes(w io.Writer, infos []api.NodeInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Category", "Inputs", "Error"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.ID, info.Name, info.Type, info.Category, inputSummary(info), info.Error})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Error", Colors: text.Colors{text.FgRed}, WidthMax: 60},
	})
	t.Render()
}

// inputSummary lists input field names, required ones marked with '*'.
func inputSummary(info api.NodeInfo) string {
	if info.Inputs == nil {
		return ""
	}
	required := make(map[string]bool, len(info.Inputs.Required))
	for _, name := range info.Inputs.Required {
		required[name] = true
	}
	names := make([]string, 0, len(info.Inputs.Properties))
	for name := range info.Inputs.Properties {
		if required[name] {
			name += "*"
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}

func newNodesRunCmd(a *app) *cobra.Command {
	var payloadJSON, payloadFile string

	cmd := &cobra.Command{
		Use:   "run <node-id>",
		Short: "Run one node with a JSON or YAML payload",
		Example: `  nodeflux nodes run test_node --payload '{"text":"hello","number":3}'
  nodeflux nodes run web_summary_gemini --file request.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(payloadJSON, payloadFile)
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}

			res := d.Execute(cmd.Context(), args[0], payload)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("node %q: %s", args[0], res.Stage)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&payloadJSON, "payload", "", "payload as a JSON object")
	cmd.Flags().StringVarP(&payloadFile, "file", "f", "", "payload file (.json or .yaml)")
	cmd.MarkFlagsMutuallyExclusive("payload", "file")
	return cmd
}

var errPayloadNotObject = errors.New("payload must be an object")

// readPayload decodes the inline JSON or the payload file. YAML is a
// superset of JSON, so files of either kind go through the YAML decoder.
func readPayload(inline, file string) (map[string]any, error) {
	switch {
	case inline != "":
		dec := json.NewDecoder(strings.NewReader(inline))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("parse --payload: %w", err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, errPayloadNotObject
		}
		return m, nil

	case file != "":
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return map[string]any{}, nil
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, errPayloadNotObject
		}
		return m, nil
	}
	return map[string]any{}, nil
}
