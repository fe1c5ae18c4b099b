package citations

import (
	"strings"
	"testing"
)

var catalog = []string{"Regulamento Pedagógico 2020.pdf", "Estatuto do Estudante.pdf"}

func TestRenderLinksInlineCitation(t *testing.T) {
	r := NewRenderer()

	answer := "A avaliação está prevista (Artigo 12 do Regulamento_Pedagogico_2020.pdf)."
	html, err := r.Render(answer, catalog)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(html, `href="/api/documents/Regulamento%20Pedag%C3%B3gico%202020.pdf/view"`) {
		t.Errorf("missing view link for resolved document:\n%s", html)
	}
	if !strings.Contains(html, `target="_blank"`) {
		t.Errorf("link must open in a new tab:\n%s", html)
	}
	// The mention keeps the spelling used in the answer.
	if !strings.Contains(html, ">Regulamento_Pedagogico_2020.pdf</a>") {
		t.Errorf("mention text must be preserved:\n%s", html)
	}
}

func TestRenderLeavesUnresolvedMentionPlain(t *testing.T) {
	r := NewRenderer()

	answer := "Ver (Artigo 3 do Documento_Inexistente.pdf) para detalhes."
	html, err := r.Render(answer, catalog)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(html, "<a href") {
		t.Errorf("unresolved mention must not be linked:\n%s", html)
	}
	if !strings.Contains(html, "(Artigo 3 do Documento_Inexistente.pdf)") {
		t.Errorf("unresolved citation must survive unchanged:\n%s", html)
	}
}

func TestRenderLinksSourcesSection(t *testing.T) {
	r := NewRenderer()

	answer := strings.Join([]string{
		"A resposta está no estatuto.",
		"",
		"FONTES:",
		"- Estatuto_do_Estudante.pdf, Artigo 5",
		"- Documento_Desconhecido.pdf, Artigo 9",
	}, "\n")

	html, err := r.Render(answer, catalog)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(html, `href="/api/documents/Estatuto%20do%20Estudante.pdf/view"`) {
		t.Errorf("resolved source line must be linked:\n%s", html)
	}
	if !strings.Contains(html, "Artigo 5") {
		t.Errorf("article reference must survive:\n%s", html)
	}
	if !strings.Contains(html, "Documento_Desconhecido.pdf, Artigo 9") {
		t.Errorf("unknown source line must stay plain:\n%s", html)
	}
}

func TestRenderSourceLinesBeforeHeadingUntouched(t *testing.T) {
	r := NewRenderer()

	answer := "Estatuto_do_Estudante.pdf, Artigo 5 refere o regime aplicável."
	html, err := r.Render(answer, catalog)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if strings.Contains(html, "<a href") {
		t.Errorf("source-shaped lines outside the sources section must not be rewritten:\n%s", html)
	}
}

func TestRenderConvertsMarkdown(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("O prazo é de **dez dias úteis**.", nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, "<strong>dez dias úteis</strong>") {
		t.Errorf("markdown emphasis must be converted:\n%s", html)
	}
}

func TestRenderRecognizesReferenciasHeading(t *testing.T) {
	r := NewRenderer()

	answer := "Resposta.\n\nReferências:\n- Regulamento_Pedagogico_2020.pdf, Artigo 2"
	html, err := r.Render(answer, catalog)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, "/api/documents/") {
		t.Errorf("alternate heading must start the sources section:\n%s", html)
	}
}
