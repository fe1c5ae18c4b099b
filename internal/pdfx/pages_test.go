package pdfx

import (
	"strings"
	"testing"
)

func TestAssemblePages(t *testing.T) {
	pages := []string{"Primeira página.", "", "   ", "Quarta página."}
	got := AssemblePages("Regulamento.pdf", pages)

	if !strings.Contains(got, "--- Documento: Regulamento.pdf | Página 1 ---\nPrimeira página.") {
		t.Errorf("missing tagged first page in %q", got)
	}
	// Page numbers follow the original document, not the surviving pages.
	if !strings.Contains(got, "--- Documento: Regulamento.pdf | Página 4 ---\nQuarta página.") {
		t.Errorf("missing tagged fourth page in %q", got)
	}
	if strings.Contains(got, "Página 2") || strings.Contains(got, "Página 3") {
		t.Errorf("empty pages must be skipped, got %q", got)
	}
}

func TestAssemblePagesAllEmpty(t *testing.T) {
	if got := AssemblePages("doc.pdf", []string{"", "  \n", ""}); got != "" {
		t.Errorf("AssemblePages() = %q, want empty string", got)
	}
}

func TestCountNonEmpty(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  int
	}{
		{name: "mixed", pages: []string{"texto", "", "  ", "mais texto"}, want: 2},
		{name: "all empty", pages: []string{"", "\t\n"}, want: 0},
		{name: "none", pages: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountNonEmpty(tt.pages); got != tt.want {
				t.Errorf("CountNonEmpty() = %d, want %d", got, tt.want)
			}
		})
	}
}
