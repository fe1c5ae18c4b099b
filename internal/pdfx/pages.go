package pdfx

import (
	"fmt"
	"strings"
)

// AssemblePages concatenates non-empty page texts into one document
// string, tagging each page with its document name and page number. The
// tags survive chunking, so retrieval results can point back at pages;
// the chunker's overlap keeps units spanning a page tag intact.
func AssemblePages(docName string, pages []string) string {
	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		fmt.Fprintf(&b, "--- Documento: %s | Página %d ---\n%s\n\n", docName, i+1, page)
	}
	return b.String()
}

// CountNonEmpty returns how many pages produced extractable text.
func CountNonEmpty(pages []string) int {
	count := 0
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			count++
		}
	}
	return count
}
