package analyzer

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AnalyzeHTML profiles the largest <table> element of an HTML document.
//
// Table rows are extracted in DOM order (th and td cells alike) and then
// flow through the same header detection, string classification, and
// sampling pipeline as delimited text. Documents without a table yield an
// error result.
//
// HTML is DOM-parsed, so unlike the other analyzers this one holds the
// document in memory; data exports published as HTML tables are small in
// practice.
func AnalyzeHTML(path string, progress Progress) *Result {
	res := newResult(SourceHTML, path)

	f, err := os.Open(path)
	if err != nil {
		return res.fail(err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return res.fail(fmt.Errorf("parse html: %w", err))
	}

	rows := largestTableRows(doc)
	if rows == nil {
		return res.fail(fmt.Errorf("no <table> element found"))
	}

	lead := rows
	if len(lead) > maxHeaderSearchRows {
		lead = lead[:maxHeaderSearchRows]
	}
	headerIdx, headers := detectHeader(lead)
	if headerIdx > 0 {
		progress.Emit("header detected at row %d", headerIdx+1)
	}
	res.HeaderRow = headerIdx
	res.Columns = headers
	for _, h := range headers {
		if _, ok := res.Types[h]; !ok {
			res.Types[h] = TypeText
		}
	}

	samp := newSampler()
	var dataRows int64
	for _, cells := range rows[headerIdx+1:] {
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
			if dataRows <= maxTypedRows {
				recordType(res.Types, col, classifyString(v))
			}
		}
		if dataRows%chunkRows == 0 {
			progress.Emit("html: %d rows processed...", dataRows)
		}
	}

	res.TotalRows = dataRows
	res.Samples = samp.Samples()
	return res
}

// largestTableRows returns the cell matrix of the table with the most
// rows, or nil when the document has no tables. Row order and cell order
// follow the DOM.
func largestTableRows(doc *goquery.Document) [][]string {
	var best [][]string

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows [][]string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > len(best) {
			best = rows
		}
	})

	return best
}
