package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbedTexts(t *testing.T) {
	var gotReq EmbeddingsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("path = %q, want /v1/embeddings", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
			{Embedding: []float64{0.1, 0.2, 0.3}},
			{Embedding: []float64{0.4, 0.5, 0.6}},
		}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "embed-model", 3)
	vectors, err := client.EmbedTexts(context.Background(), []string{"primeiro", "segundo"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}

	if gotReq.Model != "embed-model" || len(gotReq.Input) != 2 {
		t.Errorf("request = %+v", gotReq)
	}
	if len(vectors) != 2 || len(vectors[0]) != 3 {
		t.Fatalf("vectors = %v", vectors)
	}
	if vectors[1][2] != float32(0.6) {
		t.Errorf("vectors[1][2] = %v, want 0.6", vectors[1][2])
	}
}

func TestEmbedTextsEmptyInput(t *testing.T) {
	client := NewEmbeddingsClient("http://unused", "key", "model", 3)
	if _, err := client.EmbedTexts(context.Background(), nil); err == nil {
		t.Error("EmbedTexts() must reject an empty input array")
	}
}

func TestEmbedTextsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
			{Embedding: []float64{0.1, 0.2, 0.3}},
		}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "model", 3)
	_, err := client.EmbedTexts(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "expected 2 embeddings") {
		t.Errorf("EmbedTexts() error = %v, want count mismatch", err)
	}
}

func TestEmbedTextsSizeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: []EmbeddingData{
			{Embedding: []float64{0.1, 0.2}},
		}})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "key", "model", 3)
	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if err == nil || !strings.Contains(err.Error(), "expected 3") {
		t.Errorf("EmbedTexts() error = %v, want size mismatch", err)
	}
}
