package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/corpus"
	"regulaqa/internal/service"
)

// DocumentsHandler handles catalog operations: list, clear, delete,
// rename and view of ingested documents.
type DocumentsHandler struct {
	corpus    *corpus.Manager
	uploadDir string
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(manager *corpus.Manager, uploadDir string) *DocumentsHandler {
	return &DocumentsHandler{
		corpus:    manager,
		uploadDir: uploadDir,
	}
}

// DocumentsResponse represents the document listing response.
//
// swagger:model DocumentsResponse
type DocumentsResponse struct {
	HasDocuments  bool                  `json:"has_documents"`
	DocumentCount int                   `json:"document_count"`
	TotalChunks   int                   `json:"total_chunks"`
	Documents     []corpus.DocumentInfo `json:"documents"`
	Message       string                `json:"message,omitempty"`
}

// List returns the catalog of ingested documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.corpus.ListDocuments(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to list documents")
		return
	}

	resp := DocumentsResponse{
		HasDocuments:  len(docs) > 0,
		DocumentCount: len(docs),
		Documents:     docs,
	}
	for _, doc := range docs {
		resp.TotalChunks += doc.ChunkCount
	}
	if len(docs) == 0 {
		resp.Message = "No documents ingested"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Clear drops the whole corpus and removes the uploaded files.
func (h *DocumentsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := h.corpus.Clear(ctx); err != nil {
		writeServiceError(ctx, w, err, "Failed to clear documents")
		return
	}

	entries, err := os.ReadDir(h.uploadDir)
	if err != nil {
		logger.WarnContext(ctx, "failed to read upload directory", "dir", h.uploadDir, "error", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(h.uploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.WarnContext(ctx, "failed to remove uploaded file", "path", path, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Documents cleared successfully",
	})
}

// Delete removes a single document by name. The name from the URL is
// resolved against the catalog, so close variants of the stored name
// still match.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	name, err := documentName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document name")
		return
	}

	result, err := h.corpus.Delete(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, h.notFoundMessage(ctx, name))
			return
		}
		writeServiceError(ctx, w, err, "Failed to delete document")
		return
	}

	logger.InfoContext(ctx, "document delete handled",
		"name", name, "deleted", result.Deleted, "requested", result.Requested)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"message":          "Document deleted successfully",
		"chunks_deleted":   result.Deleted,
		"chunks_requested": result.Requested,
	})
}

// RenameRequest represents the rename request payload.
type RenameRequest struct {
	NewName string `json:"new_name"`
}

// Rename changes a document's display name.
func (h *DocumentsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, err := documentName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document name")
		return
	}

	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	newName := strings.TrimSpace(req.NewName)
	if newName == "" {
		writeError(w, http.StatusBadRequest, "new_name is required")
		return
	}

	if err := h.corpus.Rename(ctx, name, newName); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, h.notFoundMessage(ctx, name))
			return
		}
		writeServiceError(ctx, w, err, "Failed to rename document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Document renamed successfully",
		"new_name": newName,
	})
}

// View streams the original PDF inline.
func (h *DocumentsHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name, err := documentName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document name")
		return
	}

	docs, err := h.corpus.ListDocuments(ctx)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to load document")
		return
	}

	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	exact, ok := corpus.ResolveName(name, names)
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}

	var filePath string
	for _, doc := range docs {
		if doc.Name == exact {
			filePath = doc.FilePath
			break
		}
	}
	if filePath == "" {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	if _, err := os.Stat(filePath); err != nil {
		writeError(w, http.StatusNotFound, "Physical file not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", exact))
	http.ServeFile(w, r, filePath)
}

// notFoundMessage builds a not-found error with a hint listing up to
// three available document names.
func (h *DocumentsHandler) notFoundMessage(ctx context.Context, name string) string {
	msg := fmt.Sprintf("Document %q not found", name)

	docs, err := h.corpus.ListDocuments(ctx)
	if err != nil || len(docs) == 0 {
		return msg
	}

	names := make([]string, 0, 3)
	for _, doc := range docs {
		names = append(names, doc.Name)
		if len(names) == 3 {
			break
		}
	}
	return fmt.Sprintf("%s. Available documents: %s", msg, strings.Join(names, ", "))
}

// documentName extracts and decodes the document name URL parameter.
func documentName(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty document name")
	}
	return name, nil
}
