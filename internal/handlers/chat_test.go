package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"regulaqa/internal/citations"
	"regulaqa/internal/corpus"
	"regulaqa/internal/rag"
	"regulaqa/internal/storage"
	storage_mocks "regulaqa/internal/storage/mocks"
	"regulaqa/internal/vectorstore"
	"regulaqa/internal/vectorstore/mocks"
)

type stubEngine struct {
	resp   rag.AskResponse
	err    error
	gotReq rag.AskRequest
	calls  int
}

func (s *stubEngine) Ask(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	s.calls++
	s.gotReq = req
	if s.err != nil {
		return rag.AskResponse{}, s.err
	}
	return s.resp, nil
}

func catalogStore(ctrl *gomock.Controller, names ...string) *mocks.MockStore {
	store := mocks.NewMockStore(ctrl)
	conn := mocks.NewMockConn(ctrl)
	store.EXPECT().Open(gomock.Any()).Return(conn, nil)

	if len(names) == 0 {
		conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(false, nil)
		conn.EXPECT().Close().Return(nil)
		return store
	}

	records := make([]vectorstore.ChunkRecord, len(names))
	for i, name := range names {
		records[i] = vectorstore.ChunkRecord{
			ID:   name,
			Meta: map[string]any{corpus.MetaSource: name},
		}
	}
	conn.EXPECT().CollectionExists(gomock.Any(), "test_documents").Return(true, nil)
	conn.EXPECT().GetAll(gomock.Any(), "test_documents").Return(records, nil).AnyTimes()
	return store
}

func TestChatHandlerHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := &stubEngine{resp: rag.AskResponse{
		Answer: "O prazo é de dez dias (Artigo 12 do Regulamento.pdf).",
		References: []rag.Reference{
			{Source: "Regulamento.pdf", ArticleNumber: "12", Score: 0.9},
		},
	}}

	sessions := storage_mocks.NewMockSessionStore(ctrl)
	sessions.EXPECT().Create(gomock.Any()).Return(&storage.Session{ID: "sess-1"}, nil)

	messages := storage_mocks.NewMockMessageStore(ctrl)
	messages.EXPECT().Append(gomock.Any(), "sess-1", "user", "Qual o prazo?").Return(&storage.Message{}, nil)
	messages.EXPECT().Append(gomock.Any(), "sess-1", "assistant", engine.resp.Answer).Return(&storage.Message{}, nil)

	manager := corpus.NewManager(catalogStore(ctrl, "Regulamento.pdf"), "test_documents", 1)
	handler := NewChatHandler(engine, citations.NewRenderer(), manager, sessions, messages)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"question": "Qual o prazo?"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id = %q", resp.SessionID)
	}
	if resp.AnswerText != engine.resp.Answer {
		t.Errorf("answer_text = %q", resp.AnswerText)
	}
	if !strings.Contains(resp.Answer, `<a href="/api/documents/Regulamento.pdf/view"`) {
		t.Errorf("answer must carry a citation link:\n%s", resp.Answer)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Source != "Regulamento.pdf" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestChatHandlerReusesKnownSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := &stubEngine{resp: rag.AskResponse{Answer: "resposta", References: []rag.Reference{}}}

	sessions := storage_mocks.NewMockSessionStore(ctrl)
	sessions.EXPECT().GetByID(gomock.Any(), "known-session").Return(&storage.Session{ID: "known-session"}, nil)

	messages := storage_mocks.NewMockMessageStore(ctrl)
	messages.EXPECT().Append(gomock.Any(), "known-session", gomock.Any(), gomock.Any()).
		Return(&storage.Message{}, nil).Times(2)

	manager := corpus.NewManager(catalogStore(ctrl), "test_documents", 1)
	handler := NewChatHandler(engine, citations.NewRenderer(), manager, sessions, messages)

	body := `{"question": "pergunta", "session_id": "known-session"}`
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "known-session" {
		t.Errorf("session_id = %q, want existing session reused", resp.SessionID)
	}
}

func TestChatHandlerUnknownSessionStartsNewOne(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := &stubEngine{resp: rag.AskResponse{Answer: "resposta", References: []rag.Reference{}}}

	sessions := storage_mocks.NewMockSessionStore(ctrl)
	sessions.EXPECT().GetByID(gomock.Any(), "stale").Return(nil, storage.ErrNotFound)
	sessions.EXPECT().Create(gomock.Any()).Return(&storage.Session{ID: "fresh"}, nil)

	messages := storage_mocks.NewMockMessageStore(ctrl)
	messages.EXPECT().Append(gomock.Any(), "fresh", gomock.Any(), gomock.Any()).
		Return(&storage.Message{}, nil).Times(2)

	manager := corpus.NewManager(catalogStore(ctrl), "test_documents", 1)
	handler := NewChatHandler(engine, citations.NewRenderer(), manager, sessions, messages)

	body := `{"question": "pergunta", "session_id": "stale"}`
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestChatHandlerEmptyQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := &stubEngine{}
	handler := NewChatHandler(engine, citations.NewRenderer(),
		corpus.NewManager(mocks.NewMockStore(ctrl), "test_documents", 1),
		storage_mocks.NewMockSessionStore(ctrl), storage_mocks.NewMockMessageStore(ctrl))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"question": "   "}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if engine.calls != 0 {
		t.Error("engine must not run for an empty question")
	}
}

func TestChatHandlerInvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := NewChatHandler(&stubEngine{}, citations.NewRenderer(),
		corpus.NewManager(mocks.NewMockStore(ctrl), "test_documents", 1),
		storage_mocks.NewMockSessionStore(ctrl), storage_mocks.NewMockMessageStore(ctrl))

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
