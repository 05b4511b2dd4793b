// Package report renders analysis results for people and for downstream
// tooling. The text renderer produces a readable map of the scanned
// files; the flat renderer produces one CSV row per profiled column.
package report

import (
	"fmt"
	"io"
	"strings"

	"datamap/internal/analyzer"
)

// maxShownSamples bounds how many example values the text report prints
// per column. Results may carry more; the report stays scannable.
const maxShownSamples = 3

// Text writes a human-readable report of results to w. Row numbers are
// printed 1-based. Results render in input order.
func Text(w io.Writer, results []*analyzer.Result) error {
	var b strings.Builder

	b.WriteString("DATA FILE MAP\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for _, res := range results {
		writeFileBlock(&b, res)
	}

	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&b, "Files analyzed: %d\n", len(results))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFileBlock(b *strings.Builder, res *analyzer.Result) {
	fmt.Fprintf(b, "FILE: %s\n", baseName(res.Path))
	fmt.Fprintf(b, "  Kind: %s\n", res.Kind)
	fmt.Fprintf(b, "  Path: %s\n", res.Path)
	fmt.Fprintf(b, "  Size: %s\n", formatBytes(res.SizeBytes))

	if res.Err != "" {
		fmt.Fprintf(b, "  ERROR: %s\n", res.Err)
	}

	switch {
	case len(res.Sheets) > 0:
		for _, sheet := range res.Sheets {
			fmt.Fprintf(b, "  SHEET: %s\n", sheet.Name)
			writeProfile(b, "    ", sheet.Columns, sheet.HeaderRow, sheet.TotalRows, sheet.Types, sheet.Samples)
		}
	case len(res.Columns) > 0:
		writeProfile(b, "  ", res.Columns, res.HeaderRow, res.TotalRows, res.Types, res.Samples)
	case res.Err == "":
		fmt.Fprintf(b, "  (no tabular content)\n")
	}

	b.WriteString("\n")
}

func writeProfile(b *strings.Builder, indent string, columns []string, headerRow int, totalRows int64, types map[string]string, samples map[string][]string) {
	if len(columns) == 0 {
		fmt.Fprintf(b, "%s(no tabular content)\n", indent)
		return
	}
	fmt.Fprintf(b, "%sHeader row: %d\n", indent, headerRow+1)
	fmt.Fprintf(b, "%sData rows: %d\n", indent, totalRows)
	fmt.Fprintf(b, "%sColumns (%d):\n", indent, len(columns))
	for _, col := range columns {
		typ := types[col]
		if typ == "" {
			typ = "text"
		}
		line := fmt.Sprintf("%s  - %s [%s]", indent, col, typ)
		if vals := samples[col]; len(vals) > 0 {
			shown := vals
			if len(shown) > maxShownSamples {
				shown = shown[:maxShownSamples]
			}
			line += ": " + strings.Join(shown, ", ")
		}
		b.WriteString(line + "\n")
	}
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// formatBytes renders a byte count with a binary unit, one decimal.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
