package citations

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"regulaqa/internal/corpus"
)

var (
	// Inline citations like "(Artigo 12 do Regulamento_Pedagogico_2020.pdf)"
	// or "(Artigo 3, número 2 da Lei_Modelo.pdf)".
	inlineCitationRe = regexp.MustCompile(`\((Artigo\s+[^)]+?)\s+d[oae]\s+([^)]+?)\)`)

	// Lines inside the sources section: "Nome_arquivo.pdf, Artigo X" with an
	// optional leading dash or brackets around the name.
	sourceLineRe = regexp.MustCompile(`^\s*-?\s*\[?([^,\[\]]+?)\]?\s*,\s*(Artigo.+)$`)

	sourcesHeadingRe = regexp.MustCompile(`(?i)^\s*(FONTES|REFERÊNCIAS)\s*:?\s*$`)
)

// Renderer converts a generated answer into HTML, rewriting document
// citations into links to the document view endpoint. Mentions that do
// not resolve against the catalog are left as plain text.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a citation-aware markdown renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		// WithUnsafe keeps the injected anchor tags intact through the
		// markdown conversion.
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
		),
	}
}

// Render rewrites citations in the answer against the given catalog
// names and converts the result to HTML.
func (r *Renderer) Render(answer string, names []string) (string, error) {
	linked := r.linkSources(r.linkInline(answer, names), names)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(linked), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// linkInline rewrites inline citations, linking the document name when
// it resolves against the catalog.
func (r *Renderer) linkInline(text string, names []string) string {
	return inlineCitationRe.ReplaceAllStringFunc(text, func(match string) string {
		groups := inlineCitationRe.FindStringSubmatch(match)
		article := groups[1]
		mention := strings.TrimSpace(groups[2])

		exact, ok := corpus.ResolveName(mention, names)
		if !ok {
			return match
		}
		return fmt.Sprintf("(%s do %s)", article, documentLink(exact, mention))
	})
}

// linkSources rewrites the lines of the trailing sources section. The
// section starts at a FONTES or REFERÊNCIAS heading and runs to the end
// of the answer.
func (r *Renderer) linkSources(text string, names []string) string {
	lines := strings.Split(text, "\n")
	inSources := false

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if sourcesHeadingRe.MatchString(stripped) {
			inSources = true
			continue
		}
		if !inSources || stripped == "" {
			continue
		}

		groups := sourceLineRe.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		mention := strings.TrimSpace(groups[1])
		rest := strings.TrimSpace(groups[2])

		exact, ok := corpus.ResolveName(mention, names)
		if !ok {
			continue
		}
		lines[i] = fmt.Sprintf("- %s, %s", documentLink(exact, mention), rest)
	}

	return strings.Join(lines, "\n")
}

// documentLink builds an anchor to the document view endpoint, keeping
// the mention text as written in the answer.
func documentLink(exact, mention string) string {
	return fmt.Sprintf(`<a href="/api/documents/%s/view" target="_blank">%s</a>`,
		url.PathEscape(exact), mention)
}
