package catsearch

import (
	"context"

	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/catsearch/internal/usecase/health"
)

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Set, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Set, error) {
	return m.searchFn(ctx, req)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(searchSvc searchUseCase, healthSvc healthUseCase) *Client {
	return &Client{searchSvc: searchSvc, healthSvc: healthSvc}
}
