package catsearch

import "github.com/kailas-cloud/catsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingCredential = domain.ErrMissingCredential
	ErrEmbeddingService  = domain.ErrEmbeddingService
	ErrSearchService     = domain.ErrSearchService
)
