// Package vectorstore implements document storage and similarity search
// over the Qdrant gRPC API.
package vectorstore

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/codeware/rag-chatbot/services"
)

// SearchResult is one scored document chunk returned from a similarity
// search.
type SearchResult struct {
	Text   string
	Source string
	Score  float32
}

// Point is one document chunk to index: its embedding plus the payload
// that search returns later. Index is the chunk's position within its
// source document.
type Point struct {
	ID     string
	Vector []float32
	Text   string
	Source string
	Index  int
}

const defaultTopK = 5

// Service reads and writes document vectors in a single Qdrant collection.
type Service struct {
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   int
	logger      *zap.Logger
}

// NewService creates a vector store over an established gRPC connection.
func NewService(conn grpc.ClientConnInterface, collection string, dimension int, logger *zap.Logger) *Service {
	return &Service{
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  collection,
		dimension:   dimension,
		logger:      logger,
	}
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet. An existing collection is left untouched.
func (s *Service) EnsureCollection(ctx context.Context) error {
	resp, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return services.WrapTransport("could not list qdrant collections", err)
	}

	for _, c := range resp.GetCollections() {
		if c.GetName() == s.collection {
			s.logger.Debug("qdrant collection exists", zap.String("collection", s.collection))
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(s.dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return services.WrapTransport(
			fmt.Sprintf("could not create qdrant collection %q", s.collection), err)
	}

	s.logger.Info("created qdrant collection",
		zap.String("collection", s.collection),
		zap.Int("dimension", s.dimension))
	return nil
}

// Search returns the topK most similar chunks to the query vector, highest
// score first. topK values below one fall back to the default.
func (s *Service) Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error) {
	if len(vector) != s.dimension {
		return nil, dimensionError(fmt.Sprintf("got %d dimensions, collection expects %d", len(vector), s.dimension))
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	resp, err := s.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Include{
				Include: &qdrantclient.PayloadIncludeSelector{
					Fields: []string{"text", "source"},
				},
			},
		},
	})
	if err != nil {
		return nil, services.WrapTransport("qdrant search failed", err)
	}

	results := make([]SearchResult, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		r := SearchResult{Score: point.GetScore()}
		if v, ok := point.Payload["text"]; ok {
			r.Text = v.GetStringValue()
		}
		if v, ok := point.Payload["source"]; ok {
			r.Source = v.GetStringValue()
		}
		results = append(results, r)
	}

	s.logger.Debug("qdrant search",
		zap.String("collection", s.collection),
		zap.Int("top_k", topK),
		zap.Int("hits", len(results)))

	return results, nil
}

// Upsert writes the points and waits for them to be persisted.
func (s *Service) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrantclient.PointStruct, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != s.dimension {
			return dimensionError(fmt.Sprintf("point %s has %d dimensions, collection expects %d", p.ID, len(p.Vector), s.dimension))
		}
		structs = append(structs, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: p.ID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*qdrantclient.Value{
				"text":        {Kind: &qdrantclient.Value_StringValue{StringValue: p.Text}},
				"source":      {Kind: &qdrantclient.Value_StringValue{StringValue: p.Source}},
				"chunk_index": {Kind: &qdrantclient.Value_IntegerValue{IntegerValue: int64(p.Index)}},
			},
		})
	}

	wait := true
	_, err := s.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Points:         structs,
		Wait:           &wait,
	})
	if err != nil {
		return services.WrapTransport("qdrant upsert failed", err)
	}

	s.logger.Debug("qdrant upsert",
		zap.String("collection", s.collection),
		zap.Int("points", len(points)))
	return nil
}

// dimensionError builds a fresh mismatch error so the shared sentinel's
// detail map is never mutated.
func dimensionError(detail string) error {
	return services.NewDomainError(
		services.ErrorTypeData,
		services.ErrDimensionMismatch.Message,
		nil,
	).WithDetail("detail", detail)
}

// Ping lists collections as a cheap reachability probe.
func (s *Service) Ping(ctx context.Context) error {
	if _, err := s.collections.List(ctx, &qdrantclient.ListCollectionsRequest{}); err != nil {
		return services.WrapTransport("qdrant is unreachable", err)
	}
	return nil
}
