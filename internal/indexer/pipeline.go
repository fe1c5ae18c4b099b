package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/corpus"
	"regulaqa/internal/pdfx"
	"regulaqa/internal/service"
)

// Embedder turns chunk texts into fixed-dimension vectors. Satisfied by
// llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline orchestrates ingestion: PDF extraction, structural chunking,
// metadata extraction, embedding, and the corpus index write.
type Pipeline struct {
	extractor pdfx.Extractor
	splitter  *StructuralSplitter
	embedder  Embedder
	corpus    *corpus.Manager
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(extractor pdfx.Extractor, embedder Embedder, manager *corpus.Manager, chunkSize, overlap int) (*Pipeline, error) {
	splitter, err := NewStructuralSplitter(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		embedder:  embedder,
		corpus:    manager,
		logger:    slog.Default(),
	}, nil
}

// Ingest processes a batch of uploaded PDFs into the corpus. A display
// name that already exists in the catalog, or appears twice in the
// batch, rejects the whole batch before any extraction or store write.
// A file from which no chunk can be produced fails the batch as a
// validation error; nothing is written unless embedding and the store
// write both succeed for the entire batch.
func (p *Pipeline) Ingest(ctx context.Context, files []FileInput) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(files) == 0 {
		return Result{}, &service.ValidationError{Field: "files", Message: "no files to ingest"}
	}

	docs, err := p.corpus.ListDocuments(ctx)
	if err != nil {
		return Result{}, service.WrapError(err, "failed to load catalog")
	}
	existing := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		existing[doc.Name] = struct{}{}
	}
	for _, file := range files {
		if _, ok := existing[file.DisplayName]; ok {
			return Result{}, fmt.Errorf("%w: %q", service.ErrDuplicateDocument, file.DisplayName)
		}
		existing[file.DisplayName] = struct{}{}
	}

	var result Result
	var allTexts []string
	var allMetas []map[string]any

	for _, file := range files {
		pages, err := p.extractor.ExtractPages(ctx, file.Path)
		if err != nil {
			return Result{}, service.WrapError(err, fmt.Sprintf("failed to extract %q", file.DisplayName))
		}
		result.TotalPages += len(pages)
		result.SuccessfulPages += pdfx.CountNonEmpty(pages)

		text := pdfx.AssemblePages(file.DisplayName, pages)
		chunks := p.splitter.Split(text)
		if len(chunks) == 0 {
			return Result{}, &service.ValidationError{
				Field:   "files",
				Message: fmt.Sprintf("no extractable text in %q", file.DisplayName),
			}
		}

		info, err := os.Stat(file.Path)
		if err != nil {
			return Result{}, service.WrapError(err, fmt.Sprintf("failed to stat %q", file.Path))
		}
		ingestedAt := time.Now().Format(time.RFC3339)

		for _, chunk := range chunks {
			meta := map[string]any{
				corpus.MetaSource:     file.DisplayName,
				corpus.MetaFilePath:   file.Path,
				corpus.MetaFileSize:   info.Size(),
				corpus.MetaIngestedAt: ingestedAt,
			}
			article := ExtractArticleInfo(chunk)
			if article.ArticleNumber != "" {
				meta[corpus.MetaArticle] = article.ArticleNumber
			}
			if article.Chapter != "" {
				meta[corpus.MetaChapter] = article.Chapter
			}
			if article.Section != "" {
				meta[corpus.MetaSection] = article.Section
			}
			if article.HasSubitems {
				meta[corpus.MetaSubitems] = true
			}

			allTexts = append(allTexts, chunk)
			allMetas = append(allMetas, meta)
		}
		result.addChunks(chunks)

		result.Files = append(result.Files, FileSummary{
			Name:   file.DisplayName,
			Path:   file.Path,
			Size:   info.Size(),
			Chunks: len(chunks),
		})
		logger.InfoContext(ctx, "file chunked",
			"document", file.DisplayName, "pages", len(pages), "chunks", len(chunks))
	}

	vectors, err := p.embedder.EmbedTexts(ctx, allTexts)
	if err != nil {
		return Result{}, service.WrapError(err, "failed to generate embeddings")
	}
	if len(vectors) != len(allTexts) {
		return Result{}, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(allTexts), len(vectors))
	}

	if _, err := p.corpus.Ingest(ctx, allTexts, vectors, allMetas); err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "batch ingested",
		"files", len(files), "chunks", result.TotalChunks,
		"pages", result.TotalPages, "successful_pages", result.SuccessfulPages)
	return result, nil
}
