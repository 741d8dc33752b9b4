// Package qdrant implements memory.VectorIndex on a Qdrant instance over
// gRPC. Each agent typically gets its own collection.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hupe1980/innerthoughts/memory"
)

// Options configures an Index.
type Options struct {
	// Host and Port locate the Qdrant gRPC endpoint.
	Host string
	Port int
	// Dimension is the embedding size used when the collection is created.
	Dimension uint64
}

// Index is a Qdrant-backed vector index scoped to a single collection.
type Index struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	collection  string
	opts        Options
}

var _ memory.VectorIndex = (*Index)(nil)

// New dials Qdrant and ensures the named collection exists.
func New(ctx context.Context, collection string, optFns ...func(o *Options)) (*Index, error) {
	opts := Options{
		Host:      "localhost",
		Port:      6334,
		Dimension: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s: %w", addr, err)
	}
	idx := &Index{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		collection:  collection,
		opts:        opts,
	}
	if err := idx.ensureCollection(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) ensureCollection(ctx context.Context) error {
	_, err := i.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: i.collection})
	if err == nil {
		return nil
	}
	_, err = i.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     i.opts.Dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", i.collection, err)
	}
	return nil
}

// Upsert inserts or updates a single point keyed by the memory ID.
func (i *Index) Upsert(ctx context.Context, id string, vector []float32, payload map[string]string) error {
	payloadMap := make(map[string]*pb.Value, len(payload))
	for k, v := range payload {
		payloadMap[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	_, err := i.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: i.collection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
				Payload: payloadMap,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", i.collection, err)
	}
	return nil
}

// Search returns the top-k nearest neighbors of the query vector.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]memory.IndexHit, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := i.points.Search(ctx, &pb.SearchPoints{
		CollectionName: i.collection,
		Vector:         vector,
		Limit:          uint64(k),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", i.collection, err)
	}
	hits := make([]memory.IndexHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, memory.IndexHit{ID: r.Id.GetUuid(), Score: r.Score})
	}
	return hits, nil
}

// Close tears down the underlying gRPC connection.
func (i *Index) Close() error {
	return i.conn.Close()
}
