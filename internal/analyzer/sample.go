package analyzer

import "strings"

// sampler collects bounded per-column example values.
//
// Per column it keeps at most maxSamples distinct strings, each truncated
// to maxSampleLen runes. Values are taken greedily in row order; once a
// column is full, later values are ignored. Null/empty values are never
// sampled. Insertion order is preserved so repeated runs over the same
// input produce identical output.
type sampler struct {
	byColumn map[string][]string
}

func newSampler() *sampler {
	return &sampler{byColumn: map[string][]string{}}
}

// Add offers one value for column. Returns whether the value was kept.
func (s *sampler) Add(column, value string) bool {
	if strings.TrimSpace(value) == "" {
		return false
	}
	have := s.byColumn[column]
	if len(have) >= maxSamples {
		return false
	}
	v := truncateRunes(value, maxSampleLen)
	for _, prev := range have {
		if prev == v {
			return false
		}
	}
	s.byColumn[column] = append(have, v)
	return true
}

// Full reports whether column already holds maxSamples values. Callers
// use it to skip stringification work for saturated columns.
func (s *sampler) Full(column string) bool {
	return len(s.byColumn[column]) >= maxSamples
}

// Samples hands out the collected map. The sampler must not be used
// afterwards; the map is owned by the result.
func (s *sampler) Samples() map[string][]string {
	return s.byColumn
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
