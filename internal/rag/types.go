package rag

// AskRequest represents a question against the regulatory corpus.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// K optionally overrides the number of chunks to retrieve.
	K int `json:"k,omitempty"`
}

// Reference represents a chunk that was used in the answer.
type Reference struct {
	// Source is the document display name (e.g., "Regulamento Pedagógico 2020.pdf").
	Source string `json:"source"`
	// ArticleNumber is the article the chunk belongs to, if detected.
	ArticleNumber string `json:"article_number,omitempty"`
	// Chapter is the chapter marker, if detected.
	Chapter string `json:"chapter,omitempty"`
	// Score is the similarity score of the chunk.
	Score float32 `json:"score"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer from the LLM.
	Answer string `json:"answer"`
	// References are the chunks that were used to generate the answer.
	References []Reference `json:"references"`
}
