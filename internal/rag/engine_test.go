package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"regulaqa/internal/corpus"
	"regulaqa/internal/llm"
	"regulaqa/internal/service"
	"regulaqa/internal/vectorstore"
	"regulaqa/internal/vectorstore/mocks"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

type fakeChat struct {
	answer   string
	err      error
	messages []llm.Message
	params   llm.ChatParams
}

func (f *fakeChat) ChatWithMessages(_ context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	f.messages = messages
	f.params = params
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestAskEmptyQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manager := corpus.NewManager(mocks.NewMockStore(ctrl), "test_documents", 1)
	engine := NewEngine(&fakeEmbedder{}, manager, &fakeChat{}, 5, 0.2)

	_, err := engine.Ask(context.Background(), AskRequest{Question: "   "})
	var validationErr *service.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Ask() error = %v, want ValidationError", err)
	}
}

func TestAskEmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil)
	conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(false, nil)
	conn.EXPECT().Close().Return(nil)

	manager := corpus.NewManager(store, "test_documents", 1)
	chat := &fakeChat{}
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, manager, chat, 5, 0.2)

	resp, err := engine.Ask(context.Background(), AskRequest{Question: "Qual o prazo?"})
	if err != nil {
		t.Fatalf("Ask() error = %v, empty corpus is not a failure", err)
	}
	if resp.Answer != noDocumentsAnswer {
		t.Errorf("answer = %q, want the no-documents message", resp.Answer)
	}
	if resp.References == nil || len(resp.References) != 0 {
		t.Errorf("references = %v, want empty non-nil slice", resp.References)
	}
	if chat.messages != nil {
		t.Error("the LLM must not be called for an empty corpus")
	}
}

func TestAskNoSearchResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil)
	conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(true, nil)
	conn.EXPECT().Search(gomock.Any(), "test_documents", []float32{0.1}, 5).
		Return([]vectorstore.SearchResult{}, nil)

	manager := corpus.NewManager(store, "test_documents", 1)
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, manager, &fakeChat{}, 5, 0.2)

	resp, err := engine.Ask(context.Background(), AskRequest{Question: "Tema sem cobertura?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !strings.Contains(resp.Answer, "não disponho de informações suficientes") {
		t.Errorf("answer = %q, want the insufficient-information fallback", resp.Answer)
	}
}

func TestAskHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil)
	conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(true, nil)
	conn.EXPECT().Search(gomock.Any(), "test_documents", []float32{0.1}, 5).
		Return([]vectorstore.SearchResult{
			{
				PointID: "p1",
				Score:   0.9,
				Meta: map[string]any{
					corpus.MetaSource:  "Regulamento.pdf",
					corpus.MetaText:    "Artigo 12\nO prazo de recurso é de dez dias úteis.",
					corpus.MetaArticle: "12",
					corpus.MetaChapter: "II",
				},
			},
			{
				// Chunks without recoverable text are dropped from the prompt.
				PointID: "p2",
				Score:   0.5,
				Meta:    map[string]any{corpus.MetaSource: "Outro.pdf"},
			},
		}, nil)

	manager := corpus.NewManager(store, "test_documents", 1)
	chat := &fakeChat{answer: "O prazo é de dez dias úteis (Artigo 12 do Regulamento.pdf)."}
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, manager, chat, 5, 0.2)

	resp, err := engine.Ask(context.Background(), AskRequest{Question: "Qual o prazo de recurso?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if resp.Answer != chat.answer {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.References) != 1 {
		t.Fatalf("references = %+v, want 1", resp.References)
	}
	ref := resp.References[0]
	if ref.Source != "Regulamento.pdf" || ref.ArticleNumber != "12" || ref.Chapter != "II" || ref.Score != 0.9 {
		t.Errorf("reference = %+v", ref)
	}

	if len(chat.messages) != 2 || chat.messages[0].Role != "system" {
		t.Fatalf("messages = %+v, want system plus user", chat.messages)
	}
	user := chat.messages[1].Content
	if !strings.Contains(user, "[Regulamento.pdf]") {
		t.Errorf("user message missing document tag:\n%s", user)
	}
	if !strings.Contains(user, "dez dias úteis") {
		t.Errorf("user message missing chunk text:\n%s", user)
	}
	if !strings.Contains(user, "Pergunta: Qual o prazo de recurso?") {
		t.Errorf("user message missing question:\n%s", user)
	}
	if chat.params.Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", chat.params.Temperature)
	}
}

func TestAskClampsK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil)
	conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(true, nil)
	conn.EXPECT().Search(gomock.Any(), "test_documents", []float32{0.1}, maxK).
		Return([]vectorstore.SearchResult{}, nil)

	manager := corpus.NewManager(store, "test_documents", 1)
	engine := NewEngine(&fakeEmbedder{vector: []float32{0.1}}, manager, &fakeChat{}, 5, 0.2)

	if _, err := engine.Ask(context.Background(), AskRequest{Question: "pergunta", K: 100}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
}

func TestAskEmbedderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	manager := corpus.NewManager(mocks.NewMockStore(ctrl), "test_documents", 1)
	engine := NewEngine(&fakeEmbedder{err: errors.New("embedding service down")}, manager, &fakeChat{}, 5, 0.2)

	_, err := engine.Ask(context.Background(), AskRequest{Question: "pergunta"})
	if err == nil || !strings.Contains(err.Error(), "failed to embed question") {
		t.Errorf("Ask() error = %v, want embed failure", err)
	}
}
