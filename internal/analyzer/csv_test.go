package analyzer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSniffDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{"comma", "a,b,c\n1,2,3\n4,5,6\n", ','},
		{"semicolon", "a;b;c\n1;2;3\n", ';'},
		{"tab", "a\tb\n1\t2\n", '\t'},
		{"pipe", "a|b|c\n1|2|3\n", '|'},
		{"no evidence falls back", "single column\nvalues\n", ','},
		{"inconsistent counts fall back", "a,b,c\n1,2\n1,2,3,4\n", ','},
		{"semicolon beats sparse comma", "a;b;c\n1,5;2,75;3\n", ';'},
		{"empty sample", "", ','},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sniffDelimiter([]byte(tt.sample), ','); got != tt.want {
				t.Fatalf("sniffDelimiter(%q) = %q, want %q", tt.sample, got, tt.want)
			}
		})
	}
}

func TestAnalyzeCSVHeaderBelowNoise(t *testing.T) {
	t.Parallel()

	data := strings.Join([]string{
		"Informe mensual 2024",
		",",
		"id,name,amount",
		"1,Alice,100.5",
		"2,Bob,200.75",
		"",
	}, "\n")
	path := writeFile(t, "report.csv", []byte(data))

	var msgs []string
	res := AnalyzeCSV(path, ',', func(m string) { msgs = append(msgs, m) })

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.HeaderRow != 2 {
		t.Fatalf("HeaderRow = %d, want 2", res.HeaderRow)
	}
	if want := []string{"id", "name", "amount"}; !reflect.DeepEqual(res.Columns, want) {
		t.Fatalf("Columns = %q, want %q", res.Columns, want)
	}
	if res.TotalRows != 2 {
		t.Fatalf("TotalRows = %d, want 2", res.TotalRows)
	}

	wantTypes := map[string]string{"id": TypeInteger, "name": TypeText, "amount": TypeDecimal}
	if !reflect.DeepEqual(res.Types, wantTypes) {
		t.Fatalf("Types = %v, want %v", res.Types, wantTypes)
	}

	wantSamples := map[string][]string{
		"id":     {"1", "2"},
		"name":   {"Alice", "Bob"},
		"amount": {"100.5", "200.75"},
	}
	if !reflect.DeepEqual(res.Samples, wantSamples) {
		t.Fatalf("Samples = %v, want %v", res.Samples, wantSamples)
	}

	found := false
	for _, m := range msgs {
		if strings.Contains(m, "header detected at row 3") {
			found = true
		}
	}
	if !found {
		t.Fatalf("progress = %q, want header detection notice", msgs)
	}
}

func TestAnalyzeCSVSniffsSemicolon(t *testing.T) {
	t.Parallel()

	data := "codigo;descripcion;precio\nA1;widget;10,5\nB2;gadget;20,75\n"
	path := writeFile(t, "export.csv", []byte(data))

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if want := []string{"codigo", "descripcion", "precio"}; !reflect.DeepEqual(res.Columns, want) {
		t.Fatalf("Columns = %q, want %q", res.Columns, want)
	}
	if res.Types["precio"] != TypeDecimal {
		t.Fatalf("Types[precio] = %q, want %q", res.Types["precio"], TypeDecimal)
	}
}

func TestAnalyzeCSVTabFallback(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data.tsv", []byte("id\tname\n1\tx\n"))

	res := AnalyzeCSV(path, '\t', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if want := []string{"id", "name"}; !reflect.DeepEqual(res.Columns, want) {
		t.Fatalf("Columns = %q, want %q", res.Columns, want)
	}
	if res.TotalRows != 1 {
		t.Fatalf("TotalRows = %d, want 1", res.TotalRows)
	}
}

func TestAnalyzeCSVStripsBOM(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "bom.csv", []byte("\uFEFFid,name\n1,x\n"))

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if want := []string{"id", "name"}; !reflect.DeepEqual(res.Columns, want) {
		t.Fatalf("Columns = %q, want %q", res.Columns, want)
	}
}

func TestAnalyzeCSVWindows1252(t *testing.T) {
	t.Parallel()

	// 0xF1 is ñ in Windows-1252 and invalid as UTF-8.
	data := []byte("id,name\n1,Espa\xf1a\n")
	path := writeFile(t, "legacy.csv", data)

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if want := []string{"España"}; !reflect.DeepEqual(res.Samples["name"], want) {
		t.Fatalf("Samples[name] = %q, want %q", res.Samples["name"], want)
	}
}

func TestTrimPartialRune(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"ascii tail untouched", []byte("abc"), []byte("abc")},
		{"complete two-byte rune untouched", []byte("ab\xc3\xb1"), []byte("ab\xc3\xb1")},
		{"split two-byte rune trimmed", []byte("ab\xc3"), []byte("ab")},
		{"split four-byte rune trimmed", []byte("ab\xf0\x9f\x98"), []byte("ab")},
		{"lone continuation bytes kept", []byte("ab\xb1\xb1\xb1\xb1"), []byte("ab\xb1\xb1\xb1\xb1")},
		{"invalid mid-sample kept", []byte("Espa\xf1a\n"), []byte("Espa\xf1a\n")},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := trimPartialRune(tt.in); !bytes.Equal(got, tt.want) {
				t.Fatalf("trimPartialRune(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalyzeCSVUTF8RuneAcrossSampleBoundary(t *testing.T) {
	t.Parallel()

	// Pad a valid UTF-8 file so the two bytes of "ñ" straddle the
	// sniff-sample boundary; the legacy-charset fallback must not fire.
	var buf bytes.Buffer
	buf.WriteString("id,name\n")
	filler := "1," + strings.Repeat("x", 20) + "\n"
	target := sniffBytes - 1 - len("2,")
	for buf.Len()+len(filler) <= target {
		buf.WriteString(filler)
	}
	if pad := target - buf.Len(); pad > 0 {
		buf.WriteString("1," + strings.Repeat("y", pad-3) + "\n")
	}
	if buf.Len() != target {
		t.Fatalf("padding = %d bytes, want %d", buf.Len(), target)
	}
	buf.WriteString("2,ñok\n")
	if !utf8.Valid(buf.Bytes()) {
		t.Fatal("fixture is not valid UTF-8")
	}
	if sample := buf.Bytes()[:sniffBytes]; utf8.Valid(sample) {
		t.Fatal("fixture sample does not split a rune")
	}

	path := writeFile(t, "boundary.csv", buf.Bytes())

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	found := false
	for _, v := range res.Samples["name"] {
		if v == "ñok" {
			found = true
		}
		if strings.Contains(v, "Ã") {
			t.Fatalf("Samples[name] = %q, value was double-decoded", res.Samples["name"])
		}
	}
	if !found {
		t.Fatalf("Samples[name] = %q, want %q present", res.Samples["name"], "ñok")
	}
}

func TestAnalyzeCSVBlankLinesNotCounted(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "gaps.csv", []byte("id,name\n1,x\n\n\n2,y\n"))

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.TotalRows != 2 {
		t.Fatalf("TotalRows = %d, want 2 (blank lines are not data rows)", res.TotalRows)
	}
}

func TestAnalyzeCSVEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "empty.csv", nil)

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.Columns != nil {
		t.Fatalf("Columns = %q, want none", res.Columns)
	}
	if res.TotalRows != 0 {
		t.Fatalf("TotalRows = %d, want 0", res.TotalRows)
	}
}

func TestAnalyzeCSVMissingFile(t *testing.T) {
	t.Parallel()

	res := AnalyzeCSV(filepath.Join(t.TempDir(), "nope.csv"), ',', nil)

	if res.Err == "" {
		t.Fatal("Err = \"\", want open failure recorded")
	}
}

func TestAnalyzeCSVProgressCadence(t *testing.T) {
	t.Parallel()

	const dataRows = 25000

	var buf bytes.Buffer
	buf.WriteString("id,value\n")
	for i := 1; i <= dataRows; i++ {
		fmt.Fprintf(&buf, "%d,item_%d\n", i, i)
	}
	path := writeFile(t, "big.csv", buf.Bytes())

	var msgs []string
	res := AnalyzeCSV(path, ',', func(m string) { msgs = append(msgs, m) })

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.TotalRows != dataRows {
		t.Fatalf("TotalRows = %d, want %d", res.TotalRows, dataRows)
	}

	var progress []string
	for _, m := range msgs {
		if strings.Contains(m, "rows processed") {
			progress = append(progress, m)
		}
	}
	want := []string{
		"csv: 10000 rows processed...",
		"csv: 20000 rows processed...",
	}
	if !reflect.DeepEqual(progress, want) {
		t.Fatalf("progress = %q, want %q", progress, want)
	}
}

func TestAnalyzeCSVTypeWindow(t *testing.T) {
	t.Parallel()

	// Values past the typed-row window must not influence the column type.
	var buf bytes.Buffer
	buf.WriteString("id,note\n")
	for i := 1; i <= maxTypedRows; i++ {
		fmt.Fprintf(&buf, "%d,text_%d\n", i, i)
	}
	buf.WriteString("not_a_number,2024-01-15\n")
	path := writeFile(t, "window.csv", buf.Bytes())

	res := AnalyzeCSV(path, ',', nil)

	if res.Err != "" {
		t.Fatalf("unexpected error: %s", res.Err)
	}
	if res.Types["id"] != TypeInteger {
		t.Fatalf("Types[id] = %q, want %q", res.Types["id"], TypeInteger)
	}
	if res.Types["note"] != TypeText {
		t.Fatalf("Types[note] = %q, want %q", res.Types["note"], TypeText)
	}
	if res.TotalRows != maxTypedRows+1 {
		t.Fatalf("TotalRows = %d, want %d", res.TotalRows, maxTypedRows+1)
	}
}

func TestAnalyzeCSVDeterministic(t *testing.T) {
	t.Parallel()

	data := "id,name,amount\n1,Alice,100.5\n2,Bob,200\n3,Cara,300.25\n"
	path := writeFile(t, "same.csv", []byte(data))

	first := AnalyzeCSV(path, ',', nil)
	second := AnalyzeCSV(path, ',', nil)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated runs differ:\n%+v\n%+v", first, second)
	}
}
