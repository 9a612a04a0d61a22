package clients

import (
	"context"
	"fmt"

	"github.com/jimlawless/whereami"
	config "github.com/momenta-tech/go-backend/internal/cfg"
	"github.com/momenta-tech/go-backend/pkg/e"
	"github.com/qdrant/go-client/qdrant"
)

type QdrantClient struct {
	Client *qdrant.Client
	cfg    *config.QdrantCfg
}

func NewQdrantClient(cfg *config.QdrantCfg) (*QdrantClient, error) {
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &QdrantClient{
		Client: qdrantClient,
		cfg:    cfg,
	}, nil
}

// EnsureCollections создаёт недостающие коллекции векторов моментов.
// Fused-, fallback- и engagement-векторы имеют разные размерности,
// поэтому каждому виду соответствует своя коллекция.
func EnsureCollections(ctx context.Context, client *QdrantClient) error {
	collections := []struct {
		name string
		size uint64
	}{
		{client.cfg.ContentCollection, client.cfg.ContentVectorSize},
		{client.cfg.FallbackCollection, client.cfg.FallbackVectorSize},
		{client.cfg.EngagementCollection, client.cfg.EngagementVectorSize},
	}

	for _, collection := range collections {
		exists, err := client.Client.CollectionExists(ctx, collection.name)
		if err != nil {
			return fmt.Errorf("failed to check collection %s existence: %w", collection.name, err)
		}

		if exists {
			continue
		}

		if err := client.Client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection.name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     collection.size,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", collection.name, err)
		}
	}

	return nil
}
