package indexer

import "unicode/utf8"

// FileSummary reports per-file ingestion results.
type FileSummary struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Chunks int    `json:"chunks"`
}

// Result aggregates ingestion statistics over an upload batch.
type Result struct {
	TotalPages      int           `json:"total_pages"`
	SuccessfulPages int           `json:"successful_pages"`
	TotalChunks     int           `json:"total_chunks"`
	TotalCharacters int           `json:"total_characters"`
	Files           []FileSummary `json:"processed_files"`
}

// addChunks accounts a document's chunks into the batch totals.
func (r *Result) addChunks(chunks []string) {
	r.TotalChunks += len(chunks)
	for _, chunk := range chunks {
		r.TotalCharacters += utf8.RuneCountInString(chunk)
	}
}
