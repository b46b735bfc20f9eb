package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/catsearch/internal/logger"
	"github.com/kailas-cloud/catsearch/internal/metrics"
)

// Search outcomes recorded in metrics and logs.
const (
	OutcomeOK             = "ok"
	OutcomeEmpty          = "empty"
	OutcomeEmbeddingError = "embedding_error"
	OutcomeSearchError    = "search_error"
)

// Service runs one search interaction: embed the query, then match the vector.
type Service struct {
	embed   Embedder
	matcher Matcher
}

// New creates a search service.
func New(embed Embedder, matcher Matcher) *Service {
	return &Service{embed: embed, matcher: matcher}
}

// Search performs exactly two sequential remote calls. Match is never called
// when embedding fails. An empty set is a successful result.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Set, error) {
	log := logpkg.FromContext(ctx)
	start := time.Now()

	embResult, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(OutcomeEmbeddingError).Inc()
		log.Warn("search failed at embedding",
			zap.Int("query_len", len(req.Query())),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, wrapService(domain.ErrEmbeddingService, "vectorize query", err)
	}
	if len(embResult.Embedding) == 0 {
		metrics.SearchesTotal.WithLabelValues(OutcomeEmbeddingError).Inc()
		log.Warn("search failed at embedding",
			zap.Int("query_len", len(req.Query())),
			zap.Duration("duration", time.Since(start)),
			zap.String("reason", "empty vector"),
		)
		return nil, fmt.Errorf("vectorize query: empty vector: %w", domain.ErrEmbeddingService)
	}

	domain.UsageFromContext(ctx).Record(&embResult)

	set, err := s.matcher.Match(ctx, embResult.Embedding, req.Threshold(), req.Limit())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues(OutcomeSearchError).Inc()
		log.Warn("search failed at match",
			zap.Float64("threshold", req.Threshold()),
			zap.Int("limit", req.Limit()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, wrapService(domain.ErrSearchService, "match categories", err)
	}
	if set == nil {
		set = result.Set{}
	}

	outcome := OutcomeOK
	if len(set) == 0 {
		outcome = OutcomeEmpty
	}
	metrics.SearchesTotal.WithLabelValues(outcome).Inc()

	log.Info("search completed",
		zap.String("outcome", outcome),
		zap.Int("query_len", len(req.Query())),
		zap.Int("dimensions", len(embResult.Embedding)),
		zap.Float64("threshold", req.Threshold()),
		zap.Int("limit", req.Limit()),
		zap.Int("results", len(set)),
		zap.Int("tokens", embResult.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)

	return set, nil
}

// wrapService tags err with the service sentinel unless it already carries it.
func wrapService(sentinel error, step string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%s: %w: %w", step, sentinel, err)
}
