package handlers

import "net/http"

// ModelHandler reports the configured model names.
type ModelHandler struct {
	llmModelName       string
	embeddingModelName string
	temperature        float64
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(llmModelName, embeddingModelName string, temperature float64) *ModelHandler {
	return &ModelHandler{
		llmModelName:       llmModelName,
		embeddingModelName: embeddingModelName,
		temperature:        temperature,
	}
}

// ModelResponse represents the model info response.
type ModelResponse struct {
	Model          string  `json:"model"`
	EmbeddingModel string  `json:"embedding_model"`
	Temperature    float64 `json:"temperature"`
}

func (h *ModelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ModelResponse{
		Model:          h.llmModelName,
		EmbeddingModel: h.embeddingModelName,
		Temperature:    h.temperature,
	})
}
