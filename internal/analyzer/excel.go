package analyzer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// AnalyzeExcel profiles a spreadsheet workbook, one sheet at a time in
// workbook order. Each sheet yields a nested SheetResult on the parent
// result, in order.
//
// Sheets are read through excelize's streaming row iterator: at most
// maxHeaderSearchRows rows are buffered for header detection and the
// remainder of the sheet is processed row by row, so peak memory stays
// bounded by the header-search window. Cell classification uses the
// sheet's native cell types, not string re-parsing.
func AnalyzeExcel(path string, progress Progress) *Result {
	res := newResult(SourceExcel, path)

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return res.fail(fmt.Errorf("open workbook: %w", err))
	}
	defer wb.Close()

	for _, name := range wb.GetSheetList() {
		progress.Emit("excel: analyzing sheet %q...", name)

		sheet, err := analyzeSheet(wb, name, progress)
		if err != nil {
			// A broken sheet poisons the workbook profile, matching the
			// one-error-per-file boundary. Sheets read so far are kept.
			res.Err = fmt.Sprintf("sheet %q: %v", name, err)
			break
		}
		res.Sheets = append(res.Sheets, sheet)
	}
	return res
}

func analyzeSheet(wb *excelize.File, name string, progress Progress) (*SheetResult, error) {
	sheet := &SheetResult{
		Name:    name,
		Types:   map[string]string{},
		Samples: map[string][]string{},
	}

	iter, err := wb.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("open rows: %w", err)
	}
	defer iter.Close()

	// Buffer the lead rows for header detection.
	lead := make([][]string, 0, maxHeaderSearchRows)
	for len(lead) < maxHeaderSearchRows && iter.Next() {
		cells, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(lead)+1, err)
		}
		lead = append(lead, cells)
	}
	if len(lead) == 0 {
		// Empty sheet: keep the empty profile.
		return sheet, nil
	}

	headerIdx, headers := detectHeader(lead)
	if headerIdx > 0 {
		progress.Emit("header detected at row %d", headerIdx+1)
	}
	sheet.HeaderRow = headerIdx
	sheet.Columns = headers
	for _, h := range headers {
		if _, ok := sheet.Types[h]; !ok {
			sheet.Types[h] = TypeText
		}
	}

	samp := newSampler()
	var dataRows int64

	// absRow is the 1-based sheet row of the row being processed, needed
	// to address cells when asking for their native type.
	processRow := func(cells []string, absRow int) {
		dataRows++
		for i, v := range cells {
			if i >= len(headers) {
				break
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			col := headers[i]
			samp.Add(col, v)
			if dataRows <= maxTypedRows && sheet.Types[col] == TypeText {
				recordType(sheet.Types, col, classifySheetCell(wb, name, i, absRow, v))
			}
		}
	}

	for i, cells := range lead[headerIdx+1:] {
		processRow(cells, headerIdx+1+i+1)
	}

	absRow := len(lead)
	for iter.Next() {
		absRow++
		cells, err := iter.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", absRow, err)
		}
		processRow(cells, absRow)
		if dataRows%chunkRows == 0 {
			progress.Emit("excel [%s]: %d rows...", name, dataRows)
		}
	}

	sheet.TotalRows = dataRows
	sheet.Samples = samp.Samples()
	return sheet, nil
}

// classifySheetCell resolves a cell's native type tag and classifies it.
// Lookup failures degrade to the string classifier rather than erroring:
// typing is best-effort by design.
func classifySheetCell(wb *excelize.File, sheet string, colIdx, absRow int, formatted string) string {
	cell, err := excelize.CoordinatesToCellName(colIdx+1, absRow)
	if err != nil {
		return classifyString(formatted)
	}
	ct, err := wb.GetCellType(sheet, cell)
	if err != nil {
		return classifyString(formatted)
	}
	return classifyCell(ct, formatted)
}
