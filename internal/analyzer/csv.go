package analyzer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// sniffBytes is the fixed lead-sample size used for delimiter sniffing
// and charset detection.
const sniffBytes = 8192

// delimiterCandidates, in preference order on equal evidence.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// sniffDelimiter guesses the field delimiter from a lead sample.
//
// A candidate wins when it appears the same non-zero number of times on
// every complete sample line; among consistent candidates the highest
// per-line count wins. On no evidence the fallback is returned.
//
// The sniff is quote-naive by design: it only needs to beat the fallback
// on ordinary exports, not to parse pathological CSV.
func sniffDelimiter(sample []byte, fallback rune) rune {
	text := string(sample)
	// Drop a trailing partial line so counts are not skewed by the cut.
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
		if len(lines) >= 10 {
			break
		}
	}
	if len(lines) == 0 {
		return fallback
	}

	best := fallback
	bestCount := 0
	for _, cand := range delimiterCandidates {
		first := strings.Count(lines[0], string(cand))
		if first == 0 {
			continue
		}
		consistent := true
		for _, ln := range lines[1:] {
			if strings.Count(ln, string(cand)) != first {
				consistent = false
				break
			}
		}
		if consistent && first > bestCount {
			best = cand
			bestCount = first
		}
	}
	return best
}

// trimPartialRune drops a trailing multibyte sequence the fixed sample
// size cut mid-rune, so UTF-8 validity is judged on whole runes only.
// Without it a valid UTF-8 file whose 8 KB boundary splits a rune would
// be misread as legacy-encoded. Real invalid bytes earlier in the
// sample are untouched.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if r, _ := utf8.DecodeRune(b[i:]); r == utf8.RuneError && len(b)-i < utf8.UTFMax {
			return b[:i]
		}
		return b
	}
	return b
}

// AnalyzeCSV profiles a delimited text file in one streaming pass.
//
// The first sniffBytes are used to sniff the delimiter (fallback comma on
// no evidence) and to detect the charset: samples that are not valid
// UTF-8 are decoded as Windows-1252 so legacy exports still profile
// cleanly. Up to maxHeaderSearchRows rows are buffered for header
// detection; buffered rows after the header are replayed, then the rest
// of the file streams row by row. A progress message is emitted every
// chunkRows rows of the streaming phase.
//
// A mid-stream read failure is recorded on the result; aggregates from
// rows read before the failure are kept as a partial profile.
func AnalyzeCSV(path string, fallbackComma rune, progress Progress) *Result {
	res := newResult(SourceCSV, path)

	f, err := os.Open(path)
	if err != nil {
		return res.fail(err)
	}
	defer f.Close()

	sample := make([]byte, sniffBytes)
	n, rerr := io.ReadFull(f, sample)
	if rerr != nil && rerr != io.EOF && rerr != io.ErrUnexpectedEOF {
		return res.fail(fmt.Errorf("read sample: %w", rerr))
	}
	sample = sample[:n]

	comma := sniffDelimiter(sample, fallbackComma)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return res.fail(fmt.Errorf("rewind: %w", err))
	}

	var src io.Reader = f
	if !utf8.Valid(trimPartialRune(sample)) {
		src = charmap.Windows1252.NewDecoder().Reader(f)
	}

	cr := csv.NewReader(src)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// Buffer the lead rows for header detection.
	lead := make([][]string, 0, maxHeaderSearchRows)
	for len(lead) < maxHeaderSearchRows {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Err = fmt.Sprintf("read lead rows: %v", err)
			break
		}
		if len(lead) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\uFEFF")
		}
		lead = append(lead, rec)
	}
	if len(lead) == 0 {
		// Zero input rows: no columns, no header.
		return res
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
	var rows int64

	processRow := func(rec []string) {
		rows++
		for i, v := range rec {
			if i >= len(headers) {
				break
			}
			if strings.TrimSpace(v) == "" {
				continue
			}
			col := headers[i]
			samp.Add(col, v)
			if rows <= maxTypedRows {
				recordType(res.Types, col, classifyString(v))
			}
		}
	}

	// Replay buffered rows that follow the header.
	for _, rec := range lead[headerIdx+1:] {
		processRow(rec)
	}

	// Stream the remainder of the file.
	if res.Err == "" {
		for {
			rec, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				// Partial aggregates are kept; not guaranteed behavior.
				res.Err = fmt.Sprintf("read row %d: %v", rows+1, err)
				break
			}
			processRow(rec)
			if rows%chunkRows == 0 {
				progress.Emit("csv: %d rows processed...", rows)
			}
		}
	}

	res.TotalRows = rows
	res.Samples = samp.Samples()
	return res
}
