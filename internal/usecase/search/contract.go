package search

import (
	"context"

	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Matcher runs server-side similarity search against the category reference set.
type Matcher interface {
	Match(ctx context.Context, vector []float32, threshold float64, limit int) (result.Set, error)
}
