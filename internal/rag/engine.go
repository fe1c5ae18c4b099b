package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/corpus"
	"regulaqa/internal/llm"
	"regulaqa/internal/service"
)

const (
	maxK = 30

	// noDocumentsAnswer is returned when the corpus has no documents yet.
	// An empty corpus is an expected state, not an error.
	noDocumentsAnswer = "Ainda não existem documentos carregados. Carregue um documento PDF para começar a fazer perguntas."

	systemPrompt = "Atua como um assistente especializado em legislação e regulamentos. " +
		"Responde sempre em português, num tom claro e profissional.\n\n" +
		"Responde à pergunta com base APENAS no contexto fornecido. Não inventes, " +
		"não deduzas nem adiciones informações que não estão no contexto. Se não " +
		"encontrares nenhuma informação relacionada com o tema, responde apenas: " +
		"\"Neste momento não disponho de informações suficientes para responder a esta questão.\"\n\n" +
		"Cada bloco do contexto é precedido pelo nome exato do documento no formato " +
		"[Nome_do_documento.pdf]. Toda a informação mencionada deve ser seguida " +
		"imediatamente pela citação no formato \"(Artigo X do Nome_do_documento.pdf)\", " +
		"usando o nome exato do documento e apenas artigos que aparecem no contexto.\n\n" +
		"No final da resposta adiciona sempre uma seção de fontes:\n\n" +
		"---\n\nFONTES:\n\nNome_do_documento.pdf, Artigo X\n\n" +
		"Lista todos os artigos citados na resposta, um por linha, no formato " +
		"\"Nome_do_documento.pdf, Artigo X\", sem hífens nem colchetes."
)

// Embedder turns the question into a query vector.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatClient generates the answer from the assembled prompt. Satisfied
// by llm.Client.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// Engine answers questions over the regulatory corpus using retrieval
// augmented generation.
type Engine interface {
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

type ragEngine struct {
	embedder    Embedder
	corpus      *corpus.Manager
	chat        ChatClient
	searchK     int
	temperature float32
	logger      *slog.Logger
}

// NewEngine creates a new RAG engine.
func NewEngine(embedder Embedder, manager *corpus.Manager, chat ChatClient, searchK int, temperature float32) Engine {
	return &ragEngine{
		embedder:    embedder,
		corpus:      manager,
		chat:        chat,
		searchK:     searchK,
		temperature: temperature,
		logger:      slog.Default(),
	}
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, &service.ValidationError{Field: "question", Message: "question is required"}
	}

	k := req.K
	if k <= 0 {
		k = e.searchK
	}
	if k > maxK {
		k = maxK
	}

	logger.InfoContext(ctx, "RAG query started", "question", question, "k", k)

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return AskResponse{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return AskResponse{}, fmt.Errorf("no embedding returned for question")
	}
	queryVector := embeddings[0]

	conn, err := e.corpus.Lookup(ctx)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCorpus) {
			logger.InfoContext(ctx, "query against empty corpus")
			return AskResponse{Answer: noDocumentsAnswer, References: []Reference{}}, nil
		}
		return AskResponse{}, err
	}

	results, err := conn.Search(ctx, e.corpus.Collection(), queryVector, k)
	if err != nil {
		logger.ErrorContext(ctx, "vector search failed", "error", err)
		return AskResponse{}, fmt.Errorf("failed to search corpus: %w", err)
	}
	logger.InfoContext(ctx, "vector search completed", "results", len(results), "k", k)

	if len(results) == 0 {
		return AskResponse{
			Answer:     "Neste momento não disponho de informações suficientes para responder a esta questão.",
			References: []Reference{},
		}, nil
	}

	var contextBuilder strings.Builder
	references := make([]Reference, 0, len(results))
	for _, result := range results {
		source, _ := result.Meta[corpus.MetaSource].(string)
		text, _ := result.Meta[corpus.MetaText].(string)
		article, _ := result.Meta[corpus.MetaArticle].(string)
		chapter, _ := result.Meta[corpus.MetaChapter].(string)
		if text == "" {
			continue
		}

		contextBuilder.WriteString(fmt.Sprintf("[%s]\n%s\n\n", source, text))
		references = append(references, Reference{
			Source:        source,
			ArticleNumber: article,
			Chapter:       chapter,
			Score:         result.Score,
		})
	}

	userMessage := fmt.Sprintf("Contexto:\n\n%s\nPergunta: %s", contextBuilder.String(), question)

	logger.InfoContext(ctx, "sending request to LLM",
		"chunks", len(references), "context_length", contextBuilder.Len())

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
	answer, err := e.chat.ChatWithMessages(ctx, messages, llm.ChatParams{Temperature: e.temperature})
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w", err)
	}

	logger.InfoContext(ctx, "RAG query completed",
		"chunks_used", len(references), "answer_length", len(answer))

	return AskResponse{Answer: answer, References: references}, nil
}
