package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"regulaqa/internal/citations"
	"regulaqa/internal/contextutil"
	"regulaqa/internal/corpus"
	"regulaqa/internal/rag"
	"regulaqa/internal/storage"
)

// ChatHandler handles question answering over the corpus, including
// session history and citation-linked HTML answers.
type ChatHandler struct {
	engine   rag.Engine
	renderer *citations.Renderer
	corpus   *corpus.Manager
	sessions storage.SessionStore
	messages storage.MessageStore
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(engine rag.Engine, renderer *citations.Renderer, manager *corpus.Manager, sessions storage.SessionStore, messages storage.MessageStore) *ChatHandler {
	return &ChatHandler{
		engine:   engine,
		renderer: renderer,
		corpus:   manager,
		sessions: sessions,
		messages: messages,
	}
}

// ChatRequest represents the chat request payload.
//
// swagger:model ChatRequest
type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	K         int    `json:"k,omitempty"`
}

// ChatResponse represents the chat response payload.
//
// swagger:model ChatResponse
type ChatResponse struct {
	// Answer is the generated answer as HTML with citation links.
	Answer string `json:"answer"`
	// AnswerText is the raw markdown answer before HTML conversion.
	AnswerText string `json:"answer_text"`
	// Sources lists the chunks used to generate the answer.
	Sources []rag.Reference `json:"sources"`
	// SessionID identifies the chat session the exchange was stored in.
	SessionID string `json:"session_id"`
}

// ServeHTTP answers a question against the corpus. A missing or unknown
// session ID starts a new session; both the question and the answer are
// persisted to it.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Question not provided")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "Empty question")
		return
	}

	sessionID, err := h.resolveSession(r, req.SessionID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to resolve session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create chat session")
		return
	}

	if _, err := h.messages.Append(ctx, sessionID, "user", question); err != nil {
		logger.WarnContext(ctx, "failed to persist user message", "session", sessionID, "error", err)
	}

	ragResp, err := h.engine.Ask(ctx, rag.AskRequest{Question: question, K: req.K})
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to process question")
		return
	}

	answerHTML, err := h.renderAnswer(r, ragResp.Answer)
	if err != nil {
		logger.WarnContext(ctx, "failed to render answer", "error", err)
		answerHTML = ragResp.Answer
	}

	if _, err := h.messages.Append(ctx, sessionID, "assistant", ragResp.Answer); err != nil {
		logger.WarnContext(ctx, "failed to persist assistant message", "session", sessionID, "error", err)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:     answerHTML,
		AnswerText: ragResp.Answer,
		Sources:    ragResp.References,
		SessionID:  sessionID,
	})
}

// resolveSession returns a valid session ID, creating a new session when
// the request carries none or an unknown one.
func (h *ChatHandler) resolveSession(r *http.Request, requested string) (string, error) {
	ctx := r.Context()

	if requested != "" {
		if _, err := h.sessions.GetByID(ctx, requested); err == nil {
			return requested, nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			return "", err
		}
	}

	session, err := h.sessions.Create(ctx)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

// renderAnswer converts the markdown answer to HTML with citation links
// resolved against the current catalog.
func (h *ChatHandler) renderAnswer(r *http.Request, answer string) (string, error) {
	docs, err := h.corpus.ListDocuments(r.Context())
	if err != nil {
		return "", err
	}
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return h.renderer.Render(answer, names)
}
