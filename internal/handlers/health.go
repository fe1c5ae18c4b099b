package handlers

import (
	"context"
	"net/http"
	"time"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/vectorstore"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              vectorstore.Store
	collection         string
	llmModelName       string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store vectorstore.Store, collection, llmModelName string) *HealthHandler {
	return &HealthHandler{
		store:              store,
		collection:         collection,
		llmModelName:       llmModelName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Model is the configured LLM model name
	Model string `json:"model"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK when the vector store answers, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.checkVectorStore(checkCtx); err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		checks["vector_store"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["vector_store"] = "ok"
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Model:     h.llmModelName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// checkVectorStore checks if the vector store is reachable. An absent
// collection is still healthy; the corpus may simply be empty.
func (h *HealthHandler) checkVectorStore(ctx context.Context) error {
	conn, err := h.store.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	_, err = conn.CollectionExists(ctx, h.collection)
	return err
}
