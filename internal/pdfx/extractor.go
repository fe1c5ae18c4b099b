package pdfx

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"regulaqa/internal/contextutil"
)

// Extractor produces per-page text for a PDF file. A failed or
// image-only page yields an empty string; it is counted by the caller
// but is not a fatal error.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// PDFExtractor implements Extractor with a pure-Go PDF reader.
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages returns the plain text of every page in the document,
// one entry per page, in order. Pages whose text cannot be extracted
// come back as empty strings.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.WarnContext(ctx, "failed to extract page text", "path", path, "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}
