package analyzer

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSamplerAdd(t *testing.T) {
	t.Parallel()

	t.Run("rejects blank values", func(t *testing.T) {
		t.Parallel()
		s := newSampler()
		if s.Add("a", "") {
			t.Fatal("Add(a, \"\") = true, want false")
		}
		if s.Add("a", "   ") {
			t.Fatal("Add(a, blanks) = true, want false")
		}
		if got := s.Samples()["a"]; got != nil {
			t.Fatalf("Samples()[a] = %q, want none", got)
		}
	})

	t.Run("deduplicates", func(t *testing.T) {
		t.Parallel()
		s := newSampler()
		if !s.Add("a", "x") {
			t.Fatal("first Add(a, x) = false, want true")
		}
		if s.Add("a", "x") {
			t.Fatal("second Add(a, x) = true, want false")
		}
		if got := s.Samples()["a"]; len(got) != 1 {
			t.Fatalf("Samples()[a] = %q, want 1 value", got)
		}
	})

	t.Run("caps per column", func(t *testing.T) {
		t.Parallel()
		s := newSampler()
		for i := 0; i < maxSamples; i++ {
			if !s.Add("a", fmt.Sprintf("v%d", i)) {
				t.Fatalf("Add #%d = false, want true", i)
			}
		}
		if s.Add("a", "overflow") {
			t.Fatal("Add beyond cap = true, want false")
		}
		if !s.Full("a") {
			t.Fatal("Full(a) = false, want true")
		}
		if s.Full("b") {
			t.Fatal("Full(b) = true, want false")
		}
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		t.Parallel()
		s := newSampler()
		for _, v := range []string{"c", "a", "b"} {
			s.Add("k", v)
		}
		want := []string{"c", "a", "b"}
		if got := s.Samples()["k"]; !reflect.DeepEqual(got, want) {
			t.Fatalf("Samples()[k] = %q, want %q", got, want)
		}
	})

	t.Run("columns are independent", func(t *testing.T) {
		t.Parallel()
		s := newSampler()
		s.Add("a", "x")
		s.Add("b", "x")
		got := s.Samples()
		if len(got["a"]) != 1 || len(got["b"]) != 1 {
			t.Fatalf("Samples() = %v, want one value in each column", got)
		}
	})
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short untouched", "hello", "hello"},
		{"exact length untouched", strings.Repeat("x", maxSampleLen), strings.Repeat("x", maxSampleLen)},
		{"long ascii cut", strings.Repeat("x", maxSampleLen+10), strings.Repeat("x", maxSampleLen)},
		{"long multibyte cut by runes", strings.Repeat("ñ", maxSampleLen+10), strings.Repeat("ñ", maxSampleLen)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncateRunes(tt.in, maxSampleLen)
			if got != tt.want {
				t.Fatalf("truncateRunes() = %q, want %q", got, tt.want)
			}
			if n := utf8.RuneCountInString(got); n > maxSampleLen {
				t.Fatalf("truncateRunes() rune count = %d, want <= %d", n, maxSampleLen)
			}
		})
	}
}
