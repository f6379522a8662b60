// Package cli formats search and SQL results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/tabular"
	"github.com/hyperjump/ragsearch/pkg/utils"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// maxValueLen bounds how much of one metadata value is printed in text mode.
const maxValueLen = 200

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms (metric: %s)\n\n", response.Total, response.QueryTime, response.Metric)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
	return nil
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | ID: %d | Score: %.4f\n", result.Rank, result.ID, result.Score)
	if result.Metadata == nil {
		fmt.Fprintln(w, "(no metadata)")
		fmt.Fprintln(w)
		return
	}
	keys := make([]string, 0, len(result.Metadata))
	for k := range result.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, utils.Truncate(tabular.FormatValue(result.Metadata[k]), maxValueLen))
	}
	fmt.Fprintln(w)
}

// WriteSQLResult writes the generated SQL and its rows to w in the given format.
func WriteSQLResult(w io.Writer, response *models.SQLResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "SQL: %s\n\n", response.SQL)
	if len(response.Columns) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(response.Columns, "\t"))
	for _, row := range response.Rows {
		cells := make([]string, len(response.Columns))
		for i, c := range response.Columns {
			cells[i] = utils.Truncate(tabular.FormatValue(row[c]), maxValueLen)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rows\n", len(response.Rows))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
