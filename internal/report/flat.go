package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"datamap/internal/analyzer"
)

// flatHeader is the fixed column set of the flat report. Order is part of
// the output contract; downstream spreadsheets key on it.
var flatHeader = []string{
	"file_name",
	"file_path",
	"file_kind",
	"file_size_bytes",
	"sheet_name",
	"total_rows",
	"total_columns",
	"column_name",
	"column_type",
	"sample_values",
	"error",
}

// Flat writes one CSV row per profiled column to w. Workbook results
// expand to one row per column per sheet. Files with no columns (broken
// or empty) still produce a single row so every scanned file is visible
// in the output.
func Flat(w io.Writer, results []*analyzer.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(flatHeader); err != nil {
		return err
	}

	for _, res := range results {
		if err := writeFlatRows(cw, res); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeFlatRows(cw *csv.Writer, res *analyzer.Result) error {
	base := func(sheet string) []string {
		return []string{
			baseName(res.Path),
			res.Path,
			string(res.Kind),
			strconv.FormatInt(res.SizeBytes, 10),
			sheet,
		}
	}

	emit := func(sheet string, totalRows int64, columns []string, types map[string]string, samples map[string][]string) error {
		if len(columns) == 0 {
			row := append(base(sheet),
				strconv.FormatInt(totalRows, 10), "0", "", "", "", res.Err)
			return cw.Write(row)
		}
		for _, col := range columns {
			row := append(base(sheet),
				strconv.FormatInt(totalRows, 10),
				strconv.Itoa(len(columns)),
				col,
				types[col],
				strings.Join(samples[col], "; "),
				res.Err,
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	}

	if len(res.Sheets) > 0 {
		for _, sheet := range res.Sheets {
			if err := emit(sheet.Name, sheet.TotalRows, sheet.Columns, sheet.Types, sheet.Samples); err != nil {
				return err
			}
		}
		return nil
	}
	return emit("", res.TotalRows, res.Columns, res.Types, res.Samples)
}
