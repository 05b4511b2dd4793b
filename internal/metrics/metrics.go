// Package metrics defines the minimal instrumentation surface the
// scanner emits to. Backends live in subpackages; the scanning code
// depends only on Backend.
package metrics

// Labels attach dimensions to a metric observation.
type Labels map[string]string

// Metric names emitted by the scanner. Backends may ignore names they
// do not understand.
const (
	// FilesTotal counts analyzed files. Labels: kind, status (ok|error).
	FilesTotal = "datamap_files_total"

	// RowsTotal counts data rows seen across files. Labels: kind.
	RowsTotal = "datamap_rows_total"

	// FileDurationSeconds observes per-file analysis wall time.
	// Labels: kind.
	FileDurationSeconds = "datamap_file_duration_seconds"
)

// Backend receives metric observations. Implementations must be safe
// for concurrent use and must never block the caller on network I/O.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Nop discards all observations. The zero value is ready to use.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}

var _ Backend = Nop{}
