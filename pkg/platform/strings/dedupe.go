// Package strings holds small slice-of-string normalization helpers shared
// by the CRUD services.
package strings

import "strings"

// DedupeAndTrim trims whitespace from every element and drops empties and
// duplicates, keeping first-occurrence order. Class sections and similar
// user-supplied lists run through this before persisting.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower additionally lowercases elements, so "Foo" and "foo"
// collapse to one entry.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
