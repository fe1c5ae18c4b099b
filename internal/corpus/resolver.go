package corpus

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName reduces a document name to a comparable form: trimmed,
// lowercased, diacritics folded, trailing ".pdf" removed, underscores and
// hyphens collapsed to single spaces.
func normalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(stripAccents, n); err == nil {
		n = folded
	}
	n = strings.TrimSuffix(n, ".pdf")
	n = strings.ReplaceAll(n, "_", " ")
	n = strings.ReplaceAll(n, "-", " ")
	return strings.Join(strings.Fields(n), " ")
}

// ResolveName matches a free-form document name, as typed by a user or
// paraphrased by the model, against the exact names in the catalog.
//
// Resolution order: normalized exact match, then substring containment in
// either direction, then the single-document fallback. Returns false when
// nothing matches; callers must surface that instead of substituting a
// different document. Rename, delete, and citation rendering all resolve
// through this same function.
func ResolveName(candidate string, names []string) (string, bool) {
	norm := normalizeName(candidate)
	if norm == "" {
		return "", false
	}

	for _, name := range names {
		if normalizeName(name) == norm {
			return name, true
		}
	}

	for _, name := range names {
		n := normalizeName(name)
		if n == "" {
			continue
		}
		if strings.Contains(n, norm) || strings.Contains(norm, n) {
			return name, true
		}
	}

	if len(names) == 1 {
		return names[0], true
	}

	return "", false
}
