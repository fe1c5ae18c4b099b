package indexer

// FileInput identifies one uploaded PDF to ingest.
type FileInput struct {
	Path        string // Saved file path under the upload directory
	DisplayName string // Externally visible document name
}

// ArticleInfo holds the structural markers detected in a chunk.
// Absent fields mean "not detected", never inferred.
type ArticleInfo struct {
	ArticleNumber string
	Chapter       string
	Section       string
	HasSubitems   bool
}
