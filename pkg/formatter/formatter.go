// Package formatter renders serializable command results as JSON, YAML,
// or a table for terminal display.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"
)

// OutputFormat is the requested rendering of a command result.
type OutputFormat string

const (
	// FormatJSON renders indented JSON. The default, and the stable
	// contract for scripting.
	FormatJSON OutputFormat = "json"

	// FormatYAML renders YAML.
	FormatYAML OutputFormat = "yaml"

	// FormatTable renders a two-column key/value table.
	FormatTable OutputFormat = "table"
)

// FormatOutput renders v in the requested format.
func FormatOutput(v any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil

	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil

	case FormatTable:
		return renderTable(v)

	default:
		return "", fmt.Errorf("unknown output format: %s (must be json, yaml, or table)", format)
	}
}

// renderTable flattens v through its JSON representation into sorted
// key/value rows. Nested values are rendered as compact JSON.
func renderTable(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object; present it as a single value row.
		return renderRows([][]string{{"value", string(data)}})
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, renderCell(fields[k])})
	}
	return renderRows(rows)
}

func renderCell(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

func renderRows(rows [][]string) (string, error) {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.Options(
		tablewriter.WithHeader([]string{"Field", "Value"}),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(2, tw.AlignLeft)),
	)

	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return "", fmt.Errorf("failed to append row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}

	return buf.String(), nil
}
