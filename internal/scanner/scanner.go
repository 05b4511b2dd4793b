// Package scanner walks a directory tree and profiles every supported
// data file it finds.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"datamap/internal/analyzer"
	"datamap/internal/metrics"
)

// skipDirs are directory names never descended into. They hold tooling
// state or dependency trees, not data.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"vendor":       true,
}

// Options configures a scan.
type Options struct {
	// Root is the directory to walk.
	Root string

	// Progress receives per-file status messages. Optional.
	Progress analyzer.Progress

	// Metrics receives scan instrumentation. Nil means no metrics.
	Metrics metrics.Backend
}

// Scan walks opts.Root and profiles each supported file sequentially,
// in lexical walk order so repeated scans produce identical output.
//
// Files are independent: a file that cannot be profiled contributes a
// Result carrying its error and the walk continues. Only a walk failure
// (unreadable directory, missing root) aborts the scan.
func Scan(opts Options) ([]*analyzer.Result, error) {
	mb := opts.Metrics
	if mb == nil {
		mb = metrics.Nop{}
	}

	var results []*analyzer.Result
	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != opts.Root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !analyzer.KnownExtension(path) {
			return nil
		}

		opts.Progress.Emit("analyzing %s", path)

		start := time.Now()
		res := analyzer.AnalyzeFile(path, opts.Progress)
		elapsed := time.Since(start).Seconds()

		status := "ok"
		if res.Err != "" {
			status = "error"
		}
		kind := string(res.Kind)
		mb.IncCounter(metrics.FilesTotal, 1, metrics.Labels{"kind": kind, "status": status})
		if rows := countRows(res); rows > 0 {
			mb.IncCounter(metrics.RowsTotal, float64(rows), metrics.Labels{"kind": kind})
		}
		mb.ObserveHistogram(metrics.FileDurationSeconds, elapsed, metrics.Labels{"kind": kind})

		results = append(results, res)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("scan %s: %w", opts.Root, err)
	}
	return results, nil
}

// countRows sums data rows across the result, descending into sheets
// for workbooks.
func countRows(res *analyzer.Result) int64 {
	if len(res.Sheets) == 0 {
		return res.TotalRows
	}
	var n int64
	for _, sheet := range res.Sheets {
		n += sheet.TotalRows
	}
	return n
}
