package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"regulaqa/internal/contextutil"
)

const scrollPageSize = 256

// QdrantStore opens connections to a Qdrant backend.
type QdrantStore struct {
	host string
	port int
}

// NewQdrantStore creates a Qdrant store factory.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) is derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC port is typically HTTP port + 1
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	return &QdrantStore{host: host, port: port}, nil
}

// Open dials a fresh connection to the backend.
func (s *QdrantStore) Open(ctx context.Context) (Conn, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: s.host,
		Port: s.port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &qdrantConn{client: client}, nil
}

// qdrantConn implements Conn over a dedicated Qdrant client.
type qdrantConn struct {
	client *qdrant.Client
}

func (c *qdrantConn) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := c.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

func (c *qdrantConn) CreateCollectionFrom(ctx context.Context, collection string, vectorSize int, texts []string, vectors [][]float32, metas []map[string]any) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	err := c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(vectorSize),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)

	return c.Append(ctx, collection, texts, vectors, metas)
}

func (c *qdrantConn) Append(ctx context.Context, collection string, texts []string, vectors [][]float32, metas []map[string]any) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) != len(vectors) || len(texts) != len(metas) {
		return nil, fmt.Errorf("texts/vectors/metas length mismatch: %d/%d/%d", len(texts), len(vectors), len(metas))
	}
	if len(texts) == 0 {
		return nil, nil
	}

	ids := make([]string, len(texts))
	points := make([]*qdrant.PointStruct, len(texts))
	for i := range texts {
		ids[i] = uuid.New().String()

		payload := make(map[string]any, len(metas[i])+1)
		for k, v := range metas[i] {
			payload[k] = v
		}
		payload["text"] = texts[i]

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(ids[i]),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return ids, nil
}

func (c *qdrantConn) GetAll(ctx context.Context, collection string) ([]ChunkRecord, error) {
	var records []ChunkRecord

	var offset *qdrant.PointId
	for {
		resp, err := c.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		for _, point := range resp.GetResult() {
			pointID := ""
			if point.Id != nil {
				pointID = point.Id.GetUuid()
			}
			meta := make(map[string]any)
			if point.Payload != nil {
				meta = convertPayloadToMap(point.Payload)
			}
			records = append(records, ChunkRecord{ID: pointID, Meta: meta})
		}

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return records, nil
}

func (c *qdrantConn) UpdateMetadata(ctx context.Context, collection string, ids []string, payload map[string]any) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewID(id))
	}

	_, err := c.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Payload:        qdrant.NewValueMap(payload),
		PointsSelector: qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to update payload", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to update payload: %w", err)
	}

	logger.InfoContext(ctx, "updated payload", "collection", collection, "count", len(ids))
	return nil
}

func (c *qdrantConn) DeletePoints(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewID(id))
	}

	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

func (c *qdrantConn) DeleteCollection(ctx context.Context, collection string) error {
	if err := c.client.DeleteCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (c *qdrantConn) Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	scoredPoints, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, result := range scoredPoints {
		pointID := ""
		if result.Id != nil {
			pointID = result.Id.GetUuid()
		}

		meta := make(map[string]any)
		if result.Payload != nil {
			meta = convertPayloadToMap(result.Payload)
		}

		results = append(results, SearchResult{
			PointID: pointID,
			Score:   result.Score,
			Meta:    meta,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

func (c *qdrantConn) Close() error {
	return c.client.Close()
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
