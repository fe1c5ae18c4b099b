package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"regulaqa/internal/contextutil"
	"regulaqa/internal/service"
	"regulaqa/internal/vectorstore"
)

// Chunk metadata keys shared with the indexing pipeline and the RAG engine.
const (
	MetaSource     = "source"
	MetaFilePath   = "file_path"
	MetaFileSize   = "file_size"
	MetaIngestedAt = "ingested_at"
	MetaArticle    = "article_number"
	MetaChapter    = "chapter"
	MetaSection    = "section"
	MetaSubitems   = "has_subitems"
	MetaText       = "text"
)

const (
	ingestAttempts      = 3
	renameBatchSize     = 100
	deleteBatchSize     = 25
	deleteSubBatchSize  = 5
	deleteBatchAttempts = 3
)

// DocumentInfo is one catalog entry, aggregated from chunk metadata.
type DocumentInfo struct {
	Name       string `json:"name"`
	FilePath   string `json:"file_path"`
	FileSize   int64  `json:"file_size"`
	IngestedAt string `json:"ingested_at"`
	ChunkCount int    `json:"chunk_count"`
}

// DeleteResult reports the outcome of a best-effort document deletion.
// Deleted may be less than Requested; partial success is data, not an error.
type DeleteResult struct {
	Requested int
	Deleted   int
}

// Manager owns the persisted index handle and the document lifecycle:
// ingest, list, rename, delete, clear. It is the sole owner of the bound
// store connection; callers must serialize mutating operations.
type Manager struct {
	store      vectorstore.Store
	collection string
	vectorSize int

	// conn is the bound handle; nil means unbound. Every mutating
	// sequence invalidates it before opening a new one.
	conn vectorstore.Conn

	settleDelay    time.Duration
	transientDelay time.Duration
	logger         *slog.Logger
}

// NewManager creates a corpus index manager over the given store.
func NewManager(store vectorstore.Store, collection string, vectorSize int) *Manager {
	return &Manager{
		store:          store,
		collection:     collection,
		vectorSize:     vectorSize,
		settleDelay:    300 * time.Millisecond,
		transientDelay: 800 * time.Millisecond,
		logger:         slog.Default(),
	}
}

// Collection returns the collection name the manager operates on.
func (m *Manager) Collection() string {
	return m.collection
}

// invalidate closes and drops the bound handle so subsequent operations
// open a fresh one and see fresh state.
func (m *Manager) invalidate() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// settle gives the backend's connection state a short pause between attempts.
func (m *Manager) settle() {
	if m.settleDelay > 0 {
		time.Sleep(m.settleDelay)
	}
}

// Ingest writes a batch of chunks to the collection, creating it if it
// does not exist yet. The cached handle is invalidated before every
// create or bind. Conflict-class errors are retried up to ingestAttempts
// times; only entering the final attempt may the collection be destroyed
// and recreated as a last-resort recovery. Any other error propagates
// immediately. Returns the point IDs assigned by the store.
func (m *Manager) Ingest(ctx context.Context, texts []string, vectors [][]float32, metas []map[string]any) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) == 0 {
		return nil, &service.ValidationError{Field: "chunks", Message: "no chunks to ingest"}
	}

	var lastErr error
	for attempt := 1; attempt <= ingestAttempts; attempt++ {
		m.invalidate()

		conn, err := m.store.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open store: %w", service.ErrStoreFatal, err)
		}

		exists, err := conn.CollectionExists(ctx, m.collection)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: failed to check collection: %w", service.ErrStoreFatal, err)
		}

		var ids []string
		if exists {
			logger.InfoContext(ctx, "appending chunks to existing collection",
				"attempt", attempt, "collection", m.collection, "chunks", len(texts))
			ids, err = conn.Append(ctx, m.collection, texts, vectors, metas)
		} else {
			logger.InfoContext(ctx, "creating collection from chunks",
				"attempt", attempt, "collection", m.collection, "chunks", len(texts))
			ids, err = conn.CreateCollectionFrom(ctx, m.collection, m.vectorSize, texts, vectors, metas)
		}
		if err == nil {
			m.conn = conn
			return ids, nil
		}
		_ = conn.Close()

		if !vectorstore.IsConflict(err) {
			return nil, fmt.Errorf("%w: ingest failed: %w", service.ErrStoreFatal, err)
		}
		lastErr = err
		logger.WarnContext(ctx, "instance conflict during ingest",
			"attempt", attempt, "collection", m.collection, "error", err)

		// Entering the last attempt: destroy the location so the final
		// create starts clean.
		if attempt == ingestAttempts-1 {
			logger.WarnContext(ctx, "destroying collection before final ingest attempt", "collection", m.collection)
			m.destroyCollection(ctx)
		}

		m.settle()
	}

	return nil, fmt.Errorf("%w: ingest failed after %d attempts: %w", service.ErrStoreTransient, ingestAttempts, lastErr)
}

// destroyCollection drops the on-disk location on a best-effort basis.
func (m *Manager) destroyCollection(ctx context.Context) {
	conn, err := m.store.Open(ctx)
	if err != nil {
		m.logger.Warn("failed to open store for collection destroy", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	if err := conn.DeleteCollection(ctx, m.collection); err != nil {
		m.logger.Warn("failed to destroy collection", "collection", m.collection, "error", err)
	}
}

// Lookup returns the bound handle, binding one if the collection exists.
// An absent collection is reported as service.ErrEmptyCorpus, which is an
// expected state rather than a failure.
func (m *Manager) Lookup(ctx context.Context) (vectorstore.Conn, error) {
	if m.conn != nil {
		return m.conn, nil
	}

	conn, err := m.store.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open store: %w", service.ErrStoreFatal, err)
	}

	exists, err := conn.CollectionExists(ctx, m.collection)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to check collection: %w", service.ErrStoreFatal, err)
	}
	if !exists {
		_ = conn.Close()
		return nil, service.ErrEmptyCorpus
	}

	m.conn = conn
	return conn, nil
}

// ListDocuments aggregates all chunk metadata by source and returns one
// summary per document. The catalog is always recomputed from chunk
// metadata, never cached. Cost is O(total chunks).
func (m *Manager) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	conn, err := m.Lookup(ctx)
	if err != nil {
		if err == service.ErrEmptyCorpus {
			return []DocumentInfo{}, nil
		}
		return nil, err
	}

	records, err := conn.GetAll(ctx, m.collection)
	if err != nil {
		m.invalidate()
		return nil, fmt.Errorf("%w: failed to read chunks: %w", service.ErrStoreFatal, err)
	}

	byName := make(map[string]*DocumentInfo)
	var order []string
	for _, rec := range records {
		source, _ := rec.Meta[MetaSource].(string)
		if source == "" {
			continue
		}
		doc, ok := byName[source]
		if !ok {
			doc = &DocumentInfo{
				Name:       source,
				FilePath:   metaString(rec.Meta, MetaFilePath),
				FileSize:   metaInt(rec.Meta, MetaFileSize),
				IngestedAt: metaString(rec.Meta, MetaIngestedAt),
			}
			byName[source] = doc
			order = append(order, source)
		}
		doc.ChunkCount++
	}

	docs := make([]DocumentInfo, 0, len(order))
	for _, name := range order {
		docs = append(docs, *byName[name])
	}
	return docs, nil
}

// TotalChunks returns the number of chunks in the corpus. Empty corpus
// counts as zero.
func (m *Manager) TotalChunks(ctx context.Context) (int, error) {
	docs, err := m.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, doc := range docs {
		total += doc.ChunkCount
	}
	return total, nil
}

// Rename resolves oldName against the catalog, renames the physical file,
// and updates source and file_path metadata for every chunk of the
// document in bounded batches. The file rename is not rolled back if a
// later metadata batch fails; the caller can detect the inconsistency via
// ListDocuments and retry.
func (m *Manager) Rename(ctx context.Context, oldName, newName string) error {
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := m.ListDocuments(ctx)
	if err != nil {
		return err
	}

	exact, ok := ResolveName(oldName, docNames(docs))
	if !ok {
		return fmt.Errorf("%w: %q", service.ErrNotFound, oldName)
	}
	logger.InfoContext(ctx, "renaming document", "from", exact, "to", newName)

	conn, err := m.Lookup(ctx)
	if err != nil {
		if err == service.ErrEmptyCorpus {
			return fmt.Errorf("%w: %q", service.ErrNotFound, oldName)
		}
		return err
	}

	records, err := conn.GetAll(ctx, m.collection)
	if err != nil {
		m.invalidate()
		return fmt.Errorf("%w: failed to read chunks: %w", service.ErrStoreFatal, err)
	}

	var ids []string
	oldPath := ""
	for _, rec := range records {
		if metaString(rec.Meta, MetaSource) != exact {
			continue
		}
		ids = append(ids, rec.ID)
		if oldPath == "" {
			oldPath = metaString(rec.Meta, MetaFilePath)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: no chunks for %q", service.ErrNotFound, exact)
	}

	// File first, metadata second: a failed metadata update leaves a
	// renamed file, never an index entry pointing at a missing one.
	newPath := oldPath
	if oldPath != "" {
		if renamed, err := renameDocumentFile(oldPath, newName); err != nil {
			logger.WarnContext(ctx, "failed to rename physical file", "path", oldPath, "error", err)
		} else {
			newPath = renamed
			logger.InfoContext(ctx, "physical file renamed", "from", oldPath, "to", newPath)
		}
	}

	payload := map[string]any{
		MetaSource:   newName,
		MetaFilePath: newPath,
	}
	for start := 0; start < len(ids); start += renameBatchSize {
		end := min(start+renameBatchSize, len(ids))
		if err := conn.UpdateMetadata(ctx, m.collection, ids[start:end], payload); err != nil {
			m.invalidate()
			return fmt.Errorf("%w: metadata update failed at batch offset %d of %d chunks: %w",
				service.ErrStoreFatal, start, len(ids), err)
		}
	}

	m.invalidate()
	logger.InfoContext(ctx, "document renamed", "from", exact, "to", newName, "chunks", len(ids))
	return nil
}

// Delete resolves name against the catalog and removes the document's
// chunks in small batches, each on its own fresh connection. Transient
// transport errors are retried with backoff; a repeatedly failing batch
// degrades to sub-batches and is finally skipped with a warning. The
// operation fails only if nothing at all was deleted. The physical file
// is removed after the metadata step.
func (m *Manager) Delete(ctx context.Context, name string) (DeleteResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := m.ListDocuments(ctx)
	if err != nil {
		return DeleteResult{}, err
	}

	exact, ok := ResolveName(name, docNames(docs))
	if !ok {
		return DeleteResult{}, fmt.Errorf("%w: %q", service.ErrNotFound, name)
	}

	// Bulk-read the target IDs on a fresh connection, never the cached
	// bound handle: interleaving large reads with it under load breaks
	// the backend transport.
	readConn, err := m.store.Open(ctx)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("%w: failed to open store: %w", service.ErrStoreFatal, err)
	}
	records, err := readConn.GetAll(ctx, m.collection)
	_ = readConn.Close()
	if err != nil {
		return DeleteResult{}, fmt.Errorf("%w: failed to read chunks: %w", service.ErrStoreFatal, err)
	}

	var ids []string
	filePath := ""
	for _, rec := range records {
		if metaString(rec.Meta, MetaSource) != exact {
			continue
		}
		ids = append(ids, rec.ID)
		if filePath == "" {
			filePath = metaString(rec.Meta, MetaFilePath)
		}
	}
	if len(ids) == 0 {
		return DeleteResult{}, fmt.Errorf("%w: no chunks for %q", service.ErrNotFound, exact)
	}

	result := DeleteResult{Requested: len(ids)}
	totalBatches := (len(ids) + deleteBatchSize - 1) / deleteBatchSize
	logger.InfoContext(ctx, "deleting document chunks",
		"document", exact, "chunks", len(ids), "batches", totalBatches)

	for start := 0; start < len(ids); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(ids))
		batch := ids[start:end]

		deleted := m.deleteBatch(ctx, batch)
		if deleted == 0 {
			logger.WarnContext(ctx, "batch could not be deleted, skipping",
				"document", exact, "offset", start, "size", len(batch))
		}
		result.Deleted += deleted
	}

	if result.Deleted == 0 {
		m.invalidate()
		return result, fmt.Errorf("%w: could not delete any chunks for %q", service.ErrStoreTransient, exact)
	}
	if result.Deleted < result.Requested {
		logger.WarnContext(ctx, "partial delete",
			"document", exact, "deleted", result.Deleted, "requested", result.Requested)
	}

	// Metadata first, file second: a failed file removal leaves an
	// orphaned file, not a dangling index entry.
	if filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			if err := os.Remove(filePath); err != nil {
				logger.WarnContext(ctx, "failed to remove physical file", "path", filePath, "error", err)
			}
		}
	}

	m.invalidate()
	logger.InfoContext(ctx, "document deleted",
		"document", exact, "deleted", result.Deleted, "requested", result.Requested)
	return result, nil
}

// deleteBatch deletes one batch of IDs, opening a fresh connection per
// attempt. Returns the number of IDs actually deleted.
func (m *Manager) deleteBatch(ctx context.Context, batch []string) int {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= deleteBatchAttempts; attempt++ {
		if err := m.deleteOnFreshConn(ctx, batch); err == nil {
			return len(batch)
		} else {
			lastErr = err
			logger.WarnContext(ctx, "batch delete failed",
				"attempt", attempt, "size", len(batch), "error", err)
			if !vectorstore.IsTransient(err) {
				break
			}
			if m.transientDelay > 0 {
				time.Sleep(m.transientDelay)
			}
		}
	}

	// Degraded fallback: sub-batches, one attempt each.
	if len(batch) <= deleteSubBatchSize {
		logger.WarnContext(ctx, "giving up on batch", "size", len(batch), "error", lastErr)
		return 0
	}
	logger.WarnContext(ctx, "falling back to sub-batches", "size", len(batch), "error", lastErr)

	deleted := 0
	for start := 0; start < len(batch); start += deleteSubBatchSize {
		end := min(start+deleteSubBatchSize, len(batch))
		sub := batch[start:end]
		m.settle()
		if err := m.deleteOnFreshConn(ctx, sub); err != nil {
			logger.WarnContext(ctx, "sub-batch delete failed", "size", len(sub), "error", err)
			continue
		}
		deleted += len(sub)
	}
	return deleted
}

func (m *Manager) deleteOnFreshConn(ctx context.Context, ids []string) error {
	conn, err := m.store.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()
	return conn.DeletePoints(ctx, m.collection, ids)
}

// Clear drops the entire collection and invalidates the handle. Clearing
// an absent collection is a no-op; the caller separately removes the
// physical files.
func (m *Manager) Clear(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	m.invalidate()

	conn, err := m.store.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to open store: %w", service.ErrStoreFatal, err)
	}
	defer func() {
		_ = conn.Close()
	}()

	exists, err := conn.CollectionExists(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("%w: failed to check collection: %w", service.ErrStoreFatal, err)
	}
	if !exists {
		return nil
	}

	if err := conn.DeleteCollection(ctx, m.collection); err != nil {
		return fmt.Errorf("%w: failed to delete collection: %w", service.ErrStoreFatal, err)
	}

	logger.InfoContext(ctx, "corpus cleared", "collection", m.collection)
	return nil
}

func docNames(docs []DocumentInfo) []string {
	names := make([]string, len(docs))
	for i, doc := range docs {
		names[i] = doc.Name
	}
	return names
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
