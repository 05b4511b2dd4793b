package analyzer

import (
	"fmt"
	"strconv"
	"strings"
)

// headerKeywords is the vocabulary of header-like words (English plus the
// Spanish equivalents seen in real-world exports). A cell containing any
// of these as a substring earns a single bonus.
var headerKeywords = []string{
	"id", "nombre", "name", "fecha", "date", "codigo", "code", "tipo", "type",
	"descripcion", "description", "cantidad", "amount", "total", "precio", "price",
	"estado", "status", "usuario", "user", "email", "telefono", "phone",
	"direccion", "address", "ciudad", "city", "pais", "country", "numero", "number",
	"clave", "key", "valor", "value", "categoria", "category", "producto", "product",
	"cliente", "customer", "orden", "order", "factura", "invoice", "cuenta", "account",
	"año", "year", "mes", "month", "dia", "day", "hora", "time", "created", "updated",
}

// scoreHeaderRow evaluates whether cells looks like a header row.
//
// Scoring, per non-empty cell (lower-cased, trimmed):
//   - parses as a number (after ","→"." normalization): -0.3, no bonuses
//   - contains a header keyword: +0.5 (at most once)
//   - identifier shape (letter then letters/digits/underscore): +0.3
//   - length 2..50: +0.2
//   - length > 100: -0.5
//
// The accumulated score is divided by the non-empty cell count, then
// penalized by 0.5 when fewer than half the cells are non-empty. Rows
// with fewer than 2 non-empty cells are rejected outright.
//
// A row is header-eligible iff the normalized score exceeds 0.1.
func scoreHeaderRow(cells []string) (eligible bool, score float64) {
	nonEmpty := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return false, 0
	}

	for _, raw := range cells {
		c := strings.ToLower(strings.TrimSpace(raw))
		if c == "" {
			continue
		}

		if _, err := strconv.ParseFloat(strings.ReplaceAll(c, ",", "."), 64); err == nil {
			score -= 0.3
			continue
		}

		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				score += 0.5
				break
			}
		}
		if isIdentifier(c) {
			score += 0.3
		}
		if n := len(c); n >= 2 && n <= 50 {
			score += 0.2
		}
		if len(c) > 100 {
			score -= 0.5
		}
	}

	score /= float64(nonEmpty)

	if float64(nonEmpty)/float64(len(cells)) < 0.5 {
		score -= 0.5
	}

	return score > 0.1, score
}

// isIdentifier reports whether s has identifier shape: an ASCII letter
// followed by ASCII letters, digits, or underscores. No spaces.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && ((r >= '0' && r <= '9') || r == '_'):
		default:
			return false
		}
	}
	return true
}

// detectHeader picks the best header row among the first
// maxHeaderSearchRows rows and returns its index together with the
// cleaned header names.
//
// Selection: highest-scoring eligible row wins; ties resolve to the
// lowest index. When no row is eligible, row 0 is promoted to header
// regardless of its score. That fallback degrades to a wrong header on
// pure-data files with no header row at all; accepted limitation.
//
// Cleanup: headers are trimmed, and blank cells become positional
// "Col_N" placeholders (1-based). Duplicate names are preserved.
func detectHeader(rows [][]string) (idx int, headers []string) {
	bestScore := -1.0
	bestIdx := 0
	var bestRow []string

	limit := len(rows)
	if limit > maxHeaderSearchRows {
		limit = maxHeaderSearchRows
	}
	for i := 0; i < limit; i++ {
		ok, score := scoreHeaderRow(rows[i])
		if ok && score > bestScore {
			bestScore = score
			bestIdx = i
			bestRow = rows[i]
		}
	}

	if bestRow == nil {
		if len(rows) == 0 {
			return 0, nil
		}
		bestRow = rows[0]
		bestIdx = 0
	}

	headers = make([]string, len(bestRow))
	for i, h := range bestRow {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Col_%d", i+1)
		}
		headers[i] = h
	}
	return bestIdx, headers
}
