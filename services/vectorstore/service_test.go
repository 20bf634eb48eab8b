package vectorstore

import (
	"context"
	"errors"
	"testing"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/codeware/rag-chatbot/services"
)

type fakeCollections struct {
	qdrantclient.CollectionsClient

	listFn   func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error)
	createFn func(*qdrantclient.CreateCollection) (*qdrantclient.CollectionOperationResponse, error)
}

func (f *fakeCollections) List(_ context.Context, in *qdrantclient.ListCollectionsRequest, _ ...grpc.CallOption) (*qdrantclient.ListCollectionsResponse, error) {
	return f.listFn(in)
}

func (f *fakeCollections) Create(_ context.Context, in *qdrantclient.CreateCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	return f.createFn(in)
}

type fakePoints struct {
	qdrantclient.PointsClient

	searchFn func(*qdrantclient.SearchPoints) (*qdrantclient.SearchResponse, error)
	upsertFn func(*qdrantclient.UpsertPoints) (*qdrantclient.PointsOperationResponse, error)
}

func (f *fakePoints) Search(_ context.Context, in *qdrantclient.SearchPoints, _ ...grpc.CallOption) (*qdrantclient.SearchResponse, error) {
	return f.searchFn(in)
}

func (f *fakePoints) Upsert(_ context.Context, in *qdrantclient.UpsertPoints, _ ...grpc.CallOption) (*qdrantclient.PointsOperationResponse, error) {
	return f.upsertFn(in)
}

func newTestService(collections qdrantclient.CollectionsClient, points qdrantclient.PointsClient, dimension int) *Service {
	return &Service{
		collections: collections,
		points:      points,
		collection:  "documents",
		dimension:   dimension,
		logger:      zap.NewNop(),
	}
}

func listResponse(names ...string) *qdrantclient.ListCollectionsResponse {
	descs := make([]*qdrantclient.CollectionDescription, len(names))
	for i, n := range names {
		descs[i] = &qdrantclient.CollectionDescription{Name: n}
	}
	return &qdrantclient.ListCollectionsResponse{Collections: descs}
}

func scoredPoint(text, source string, score float32) *qdrantclient.ScoredPoint {
	return &qdrantclient.ScoredPoint{
		Score: score,
		Payload: map[string]*qdrantclient.Value{
			"text":   {Kind: &qdrantclient.Value_StringValue{StringValue: text}},
			"source": {Kind: &qdrantclient.Value_StringValue{StringValue: source}},
		},
	}
}

func TestEnsureCollection(t *testing.T) {
	t.Run("existing collection is left untouched", func(t *testing.T) {
		collections := &fakeCollections{
			listFn: func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error) {
				return listResponse("documents", "other"), nil
			},
			createFn: func(*qdrantclient.CreateCollection) (*qdrantclient.CollectionOperationResponse, error) {
				t.Fatal("create must not be called when the collection exists")
				return nil, nil
			},
		}

		svc := newTestService(collections, nil, 768)
		assert.NoError(t, svc.EnsureCollection(context.Background()))
	})

	t.Run("missing collection is created with cosine distance", func(t *testing.T) {
		var created *qdrantclient.CreateCollection
		collections := &fakeCollections{
			listFn: func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error) {
				return listResponse("other"), nil
			},
			createFn: func(req *qdrantclient.CreateCollection) (*qdrantclient.CollectionOperationResponse, error) {
				created = req
				return &qdrantclient.CollectionOperationResponse{Result: true}, nil
			},
		}

		svc := newTestService(collections, nil, 768)
		require.NoError(t, svc.EnsureCollection(context.Background()))

		require.NotNil(t, created)
		assert.Equal(t, "documents", created.CollectionName)
		params := created.VectorsConfig.GetParams()
		require.NotNil(t, params)
		assert.Equal(t, uint64(768), params.Size)
		assert.Equal(t, qdrantclient.Distance_Cosine, params.Distance)
	})

	t.Run("list failure is a transport error", func(t *testing.T) {
		collections := &fakeCollections{
			listFn: func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error) {
				return nil, errors.New("connection refused")
			},
		}

		svc := newTestService(collections, nil, 768)
		err := svc.EnsureCollection(context.Background())
		require.Error(t, err)
		assert.True(t, services.IsTransportError(err))
	})
}

func TestSearch(t *testing.T) {
	t.Run("maps payload and score", func(t *testing.T) {
		var gotReq *qdrantclient.SearchPoints
		points := &fakePoints{
			searchFn: func(req *qdrantclient.SearchPoints) (*qdrantclient.SearchResponse, error) {
				gotReq = req
				return &qdrantclient.SearchResponse{Result: []*qdrantclient.ScoredPoint{
					scoredPoint("chunk one", "handbook.pdf", 0.91),
					scoredPoint("chunk two", "faq.pdf", 0.42),
				}}, nil
			},
		}

		svc := newTestService(nil, points, 3)
		results, err := svc.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 2)

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, SearchResult{Text: "chunk one", Source: "handbook.pdf", Score: 0.91}, results[0])
		assert.Equal(t, SearchResult{Text: "chunk two", Source: "faq.pdf", Score: 0.42}, results[1])

		require.NotNil(t, gotReq)
		assert.Equal(t, "documents", gotReq.CollectionName)
		assert.Equal(t, uint64(2), gotReq.Limit)
		assert.ElementsMatch(t, []string{"text", "source"},
			gotReq.WithPayload.GetInclude().GetFields())
	})

	t.Run("non-positive topK falls back to default", func(t *testing.T) {
		var gotLimit uint64
		points := &fakePoints{
			searchFn: func(req *qdrantclient.SearchPoints) (*qdrantclient.SearchResponse, error) {
				gotLimit = req.Limit
				return &qdrantclient.SearchResponse{}, nil
			},
		}

		svc := newTestService(nil, points, 3)
		_, err := svc.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 0)

		require.NoError(t, err)
		assert.Equal(t, uint64(defaultTopK), gotLimit)
	})

	t.Run("dimension mismatch is a validation error", func(t *testing.T) {
		svc := newTestService(nil, nil, 768)
		_, err := svc.Search(context.Background(), []float32{0.1, 0.2}, 5)

		require.Error(t, err)
		assert.ErrorIs(t, err, services.ErrDimensionMismatch)
		assert.Contains(t, services.GetErrorDetails(err)["detail"], "768")
	})

	t.Run("search failure is a transport error", func(t *testing.T) {
		points := &fakePoints{
			searchFn: func(*qdrantclient.SearchPoints) (*qdrantclient.SearchResponse, error) {
				return nil, errors.New("unavailable")
			},
		}

		svc := newTestService(nil, points, 3)
		_, err := svc.Search(context.Background(), []float32{0.1, 0.2, 0.3}, 5)

		require.Error(t, err)
		assert.True(t, services.IsTransportError(err))
	})
}

func TestUpsert(t *testing.T) {
	t.Run("writes points with payload and waits", func(t *testing.T) {
		var gotReq *qdrantclient.UpsertPoints
		points := &fakePoints{
			upsertFn: func(req *qdrantclient.UpsertPoints) (*qdrantclient.PointsOperationResponse, error) {
				gotReq = req
				return &qdrantclient.PointsOperationResponse{}, nil
			},
		}

		svc := newTestService(nil, points, 3)
		err := svc.Upsert(context.Background(), []Point{
			{ID: "11111111-1111-1111-1111-111111111111", Vector: []float32{0.1, 0.2, 0.3}, Text: "chunk", Source: "doc.pdf", Index: 2},
		})

		require.NoError(t, err)
		require.NotNil(t, gotReq)
		assert.Equal(t, "documents", gotReq.CollectionName)
		require.NotNil(t, gotReq.Wait)
		assert.True(t, *gotReq.Wait)
		require.Len(t, gotReq.Points, 1)

		p := gotReq.Points[0]
		assert.Equal(t, "11111111-1111-1111-1111-111111111111", p.Id.GetUuid())
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, p.Vectors.GetVector().Data)
		assert.Equal(t, "chunk", p.Payload["text"].GetStringValue())
		assert.Equal(t, "doc.pdf", p.Payload["source"].GetStringValue())
		assert.Equal(t, int64(2), p.Payload["chunk_index"].GetIntegerValue())
	})

	t.Run("no points is a no-op", func(t *testing.T) {
		points := &fakePoints{
			upsertFn: func(*qdrantclient.UpsertPoints) (*qdrantclient.PointsOperationResponse, error) {
				t.Fatal("upsert must not be called without points")
				return nil, nil
			},
		}

		svc := newTestService(nil, points, 3)
		assert.NoError(t, svc.Upsert(context.Background(), nil))
	})

	t.Run("dimension mismatch rejects the batch", func(t *testing.T) {
		svc := newTestService(nil, nil, 3)
		err := svc.Upsert(context.Background(), []Point{
			{ID: "id", Vector: []float32{0.1}, Text: "chunk", Source: "doc.pdf"},
		})

		assert.ErrorIs(t, err, services.ErrDimensionMismatch)
	})

	t.Run("upsert failure is a transport error", func(t *testing.T) {
		points := &fakePoints{
			upsertFn: func(*qdrantclient.UpsertPoints) (*qdrantclient.PointsOperationResponse, error) {
				return nil, errors.New("unavailable")
			},
		}

		svc := newTestService(nil, points, 3)
		err := svc.Upsert(context.Background(), []Point{
			{ID: "id", Vector: []float32{0.1, 0.2, 0.3}, Text: "chunk", Source: "doc.pdf"},
		})

		require.Error(t, err)
		assert.True(t, services.IsTransportError(err))
	})
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		collections := &fakeCollections{
			listFn: func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error) {
				return listResponse(), nil
			},
		}
		svc := newTestService(collections, nil, 3)
		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		collections := &fakeCollections{
			listFn: func(*qdrantclient.ListCollectionsRequest) (*qdrantclient.ListCollectionsResponse, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newTestService(collections, nil, 3)
		err := svc.Ping(context.Background())
		require.Error(t, err)
		assert.True(t, services.IsTransportError(err))
	})
}
