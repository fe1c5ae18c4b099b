package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/corpus"
	"regulaqa/internal/indexer"
)

// maxUploadBytes bounds the total multipart request size (64 MiB).
const maxUploadBytes = 64 << 20

// UploadHandler handles PDF uploads and triggers ingestion.
type UploadHandler struct {
	pipeline  *indexer.Pipeline
	uploadDir string
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(pipeline *indexer.Pipeline, uploadDir string) *UploadHandler {
	return &UploadHandler{
		pipeline:  pipeline,
		uploadDir: uploadDir,
	}
}

// UploadedFile describes one stored file in the upload response.
type UploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadResponse represents the upload endpoint response.
type UploadResponse struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Files          []UploadedFile `json:"files"`
	ProcessingInfo indexer.Result `json:"processing_info"`
}

// ServeHTTP accepts a multipart batch of PDF files, stores each under a
// UUID-prefixed name, and runs the ingestion pipeline. A failed batch
// removes the stored files again so a retry starts clean.
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.WarnContext(ctx, "invalid multipart request", "error", err)
		writeError(w, http.StatusBadRequest, "No files sent")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "No files selected")
		return
	}

	var uploaded []UploadedFile
	var inputs []indexer.FileInput
	var savedPaths []string

	cleanup := func() {
		for _, path := range savedPaths {
			if err := os.Remove(path); err != nil {
				logger.WarnContext(ctx, "failed to remove uploaded file", "path", path, "error", err)
			}
		}
	}

	for _, header := range fileHeaders {
		name := corpus.SanitizeFileName(filepath.Base(header.Filename))
		if name == "" || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			cleanup()
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid file: %q, only PDF files are accepted", header.Filename))
			return
		}

		id := uuid.New().String()
		path := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", id, name))

		if err := h.saveFile(header, path); err != nil {
			logger.ErrorContext(ctx, "failed to save uploaded file", "name", name, "error", err)
			cleanup()
			writeError(w, http.StatusInternalServerError, "Failed to save uploaded file")
			return
		}
		savedPaths = append(savedPaths, path)

		uploaded = append(uploaded, UploadedFile{ID: id, Name: name})
		inputs = append(inputs, indexer.FileInput{Path: path, DisplayName: name})
	}

	result, err := h.pipeline.Ingest(ctx, inputs)
	if err != nil {
		cleanup()
		writeServiceError(ctx, w, err, "Failed to process PDFs")
		return
	}

	logger.InfoContext(ctx, "upload processed", "files", len(uploaded), "chunks", result.TotalChunks)
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:        true,
		Message:        "PDFs processed successfully",
		Files:          uploaded,
		ProcessingInfo: result,
	})
}

func (h *UploadHandler) saveFile(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		_ = dst.Close()
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
