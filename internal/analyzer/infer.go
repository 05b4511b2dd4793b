package analyzer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// Type categories recorded per column. TypeText is the starting category
// for every column; the parquet analyzer may additionally record a raw
// storage type name when nothing matches (see mapColumnTypeName).
const (
	TypeText    = "text"
	TypeInteger = "integer"
	TypeDecimal = "decimal"
	TypeDate    = "date"
	TypeBoolean = "boolean"
)

// classifyString classifies one textual value.
//
// Rules, in order:
//   - integer: parses after stripping "."/"," thousands separators and the
//     original contains neither "." nor ","
//   - decimal: contains separators and parses stripped, or parses as a
//     float after ","→"." substitution
//   - date: contains "/" or "-", is at most 20 characters, and has a digit
//   - otherwise text
//
// Classification is deliberately shallow; locale-complete number parsing
// is out of scope.
func classifyString(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return TypeText
	}

	stripped := strings.TrimSpace(strings.NewReplacer(",", "", ".", "").Replace(s))
	if _, err := strconv.ParseInt(stripped, 10, 64); err == nil {
		if strings.ContainsAny(s, ".,") {
			return TypeDecimal
		}
		return TypeInteger
	}

	if _, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return TypeDecimal
	}

	if len(s) <= 20 && strings.ContainsAny(s, "/-") && strings.ContainsFunc(s, unicode.IsDigit) {
		return TypeDate
	}

	return TypeText
}

// classifyCell classifies a spreadsheet cell from its native cell type
// rather than by re-parsing the rendered string.
//
// excelize reports most real-world dates as number cells carrying a date
// number format, so number cells whose formatted value has date shape are
// classified as dates; remaining number cells split integer/decimal on
// the presence of a decimal point.
func classifyCell(ct excelize.CellType, formatted string) string {
	switch ct {
	case excelize.CellTypeBool:
		return TypeBoolean
	case excelize.CellTypeDate:
		return TypeDate
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		s := strings.TrimSpace(formatted)
		if s == "" {
			return TypeText
		}
		if looksLikeDate(s) {
			return TypeDate
		}
		if strings.ContainsAny(s, ".,") {
			if classifyString(s) == TypeDecimal {
				return TypeDecimal
			}
			return TypeText
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return TypeInteger
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return TypeDecimal
		}
		return TypeText
	default:
		return TypeText
	}
}

func looksLikeDate(s string) bool {
	return len(s) <= 20 && strings.ContainsAny(s, "/-") && strings.ContainsFunc(s, unicode.IsDigit)
}

// mapColumnTypeName maps a columnar-binary logical type name (Arrow
// schema field type) to a profile category via substring match.
//
// Anything unrecognized falls back to the raw type name itself rather
// than a fixed category. That is inconsistent with the CSV and Excel
// analyzers on purpose: downstream reports show the storage type verbatim
// for exotic columns (decimal128, large_binary, ...).
func mapColumnTypeName(typeName string) string {
	lower := strings.ToLower(typeName)
	switch {
	case strings.Contains(lower, "int"):
		return TypeInteger
	case strings.Contains(lower, "float"), strings.Contains(lower, "double"):
		return TypeDecimal
	case strings.Contains(lower, "timestamp"), strings.Contains(lower, "date"):
		return TypeDate
	case strings.Contains(lower, "bool"):
		return TypeBoolean
	case strings.Contains(lower, "string"), strings.Contains(lower, "utf8"):
		return TypeText
	default:
		return typeName
	}
}

// recordType applies the per-column monotonic policy: the column starts
// as text and the first non-text classification wins permanently.
func recordType(types map[string]string, column, typ string) {
	if types[column] == TypeText && typ != TypeText {
		types[column] = typ
	}
}
