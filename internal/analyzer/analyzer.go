// Package analyzer implements streaming structural profiling of tabular
// data files.
//
// The analyzer is responsible for:
//   - Locating the true header row among noisy leading rows
//   - Inferring a coarse type per column from a bounded prefix of the data
//   - Collecting a bounded sample of example values per column
//   - Counting data rows without materializing any file in memory
//
// Design constraints:
//   - Reads are streamed or batched; peak memory is bounded regardless of
//     file size.
//   - All profiling is best-effort: a broken file yields a Result carrying
//     an error description, never a failed batch.
//   - One analyzer invocation owns its Result for the duration of a single
//     synchronous pass; the Result is immutable once returned.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// chunkRows is the row cadence for progress notifications and the
	// upper bound for parquet sample batches.
	chunkRows = 10000

	// maxSamples is the per-column cap on distinct example values.
	maxSamples = 5

	// maxSampleLen is the per-value truncation length, in runes.
	maxSampleLen = 50

	// maxHeaderSearchRows bounds how many leading rows are examined when
	// looking for the header.
	maxHeaderSearchRows = 20

	// maxTypedRows bounds how many data rows feed type inference. Rows
	// beyond this are still counted and sampled, just not classified.
	maxTypedRows = 1000
)

// SourceKind identifies the physical representation of a profiled file.
type SourceKind string

const (
	SourceCSV     SourceKind = "csv"
	SourceExcel   SourceKind = "excel"
	SourceParquet SourceKind = "parquet"
	SourceHTML    SourceKind = "html"
)

// Progress receives out-of-band, human-readable status messages while a
// file is being analyzed. It is fire-and-forget: the analyzer never waits
// on it and never reads anything back. A nil Progress is valid; Emit on
// a nil Progress is a no-op.
type Progress func(msg string)

func (p Progress) Emit(format string, args ...any) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}

// Result is the structural profile of one file (or of one workbook; see
// Sheets). Samples holds at most maxSamples values per column, each at
// most maxSampleLen runes.
//
// Columns is positional and preserves duplicate header text verbatim.
// Types and Samples are keyed by column name, so statistics for duplicate
// names merge into one entry. HeaderRow is 0-based.
type Result struct {
	Kind      SourceKind          `json:"kind"`
	Path      string              `json:"path"`
	SizeBytes int64               `json:"size_bytes"`
	Columns   []string            `json:"columns,omitempty"`
	HeaderRow int                 `json:"header_row"`
	TotalRows int64               `json:"total_rows"`
	Types     map[string]string   `json:"types,omitempty"`
	Samples   map[string][]string `json:"samples,omitempty"`
	Sheets    []*SheetResult      `json:"sheets,omitempty"`
	Err       string              `json:"error,omitempty"`
}

// SheetResult is the per-sheet profile nested under a workbook Result.
type SheetResult struct {
	Name      string              `json:"name"`
	Columns   []string            `json:"columns,omitempty"`
	HeaderRow int                 `json:"header_row"`
	TotalRows int64               `json:"total_rows"`
	Types     map[string]string   `json:"types,omitempty"`
	Samples   map[string][]string `json:"samples,omitempty"`
}

// newResult creates an empty profile for path, recording its size up
// front. Size lookup failure is not fatal; profiling may still succeed.
func newResult(kind SourceKind, path string) *Result {
	res := &Result{
		Kind:    kind,
		Path:    path,
		Types:   map[string]string{},
		Samples: map[string][]string{},
	}
	if fi, err := os.Stat(path); err == nil {
		res.SizeBytes = fi.Size()
	}
	return res
}

// fail records err on the result and returns it. Fields aggregated before
// the failure are left as-is: partial profiles are acceptable output.
func (r *Result) fail(err error) *Result {
	r.Err = err.Error()
	return r
}

// KnownExtension reports whether path has a file extension the analyzer
// can dispatch on.
func KnownExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".xlsx", ".xlsm", ".parquet", ".pq", ".html", ".htm":
		return true
	}
	return false
}

// AnalyzeFile profiles one file, selecting the analyzer by extension.
//
// Failures never escape as errors: a file that cannot be profiled yields
// a Result whose Err field names the failure. Files in a batch are
// independent.
func AnalyzeFile(path string, progress Progress) *Result {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return AnalyzeCSV(path, ',', progress)
	case ".tsv":
		return AnalyzeCSV(path, '\t', progress)
	case ".xlsx", ".xlsm":
		return AnalyzeExcel(path, progress)
	case ".parquet", ".pq":
		return AnalyzeParquet(path, progress)
	case ".html", ".htm":
		return AnalyzeHTML(path, progress)
	default:
		res := newResult("", path)
		return res.fail(fmt.Errorf("unsupported file extension %q", filepath.Ext(path)))
	}
}
