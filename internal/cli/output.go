package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stormlightlabs/memoria/internal/shared"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var outputFormat string

// addFormatFlag registers --format on cmd.
func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "format", "f", formatTable, "Output format (table, json, yaml)")
}

func checkFormat() error {
	switch outputFormat {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFormat)
}

// emit writes v as JSON or YAML when one was requested. It returns false for
// the table format so the caller renders its own table.
func emit(w io.Writer, v any) (bool, error) {
	switch outputFormat {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return true, enc.Encode(v)
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = w.Write(data)
		return true, err
	}
	return false, nil
}

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row(header))
	t.SetStyle(table.StyleRounded)
	return t
}

// cell shortens free text for a table column.
func cell(s string) string {
	return shared.TruncateText(shared.FirstLine(s), 60)
}

func optCell(s *string) string {
	return cell(shared.Deref(s))
}

func idCell(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}

// optionalFlag returns a pointer to the flag's value when the user set it.
func optionalFlag(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
