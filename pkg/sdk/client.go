package catsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/catsearch/internal/db"
	dbPostgres "github.com/kailas-cloud/catsearch/internal/db/postgres"
	dbRest "github.com/kailas-cloud/catsearch/internal/db/rest"
	"github.com/kailas-cloud/catsearch/internal/domain"
	"github.com/kailas-cloud/catsearch/internal/domain/search/request"
	"github.com/kailas-cloud/catsearch/internal/domain/search/result"
	"github.com/kailas-cloud/catsearch/internal/render"
	categoryrepo "github.com/kailas-cloud/catsearch/internal/repository/category"
	openaiEmb "github.com/kailas-cloud/catsearch/internal/transport/openai"
	healthuc "github.com/kailas-cloud/catsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/catsearch/internal/usecase/search"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultEmbeddingURL = "https://api.mistral.ai/v1"
	defaultModel        = "mistral-embed"
)

// searchUseCase is the internal interface for one search pass.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Set, error)
}

// Client is the catsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. The database connection is established lazily.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{timeout: defaultTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	embedder, err := createEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	var embChecker healthuc.Checker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		embChecker = hc
	}

	return &Client{
		store:     store,
		searchSvc: searchuc.New(embedder, categoryrepo.New(store, cfg.procedure)),
		healthSvc: healthuc.New(healthuc.CheckerFunc(store.Ping), embChecker, nil),
		obs:       obs,
	}, nil
}

func createEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	if cfg.embedder != nil {
		return &embedderAdapter{inner: cfg.embedder}, nil
	}
	if cfg.embeddingKey == "" {
		return nil, fmt.Errorf("catsearch: %w (use WithMistral or WithEmbedder)",
			domain.NewMissingCredential("embedding API key"))
	}
	baseURL := cfg.embeddingURL
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	model := cfg.embeddingName
	if model == "" {
		model = defaultModel
	}
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   cfg.embeddingKey,
		BaseURL:  baseURL,
		Model:    model,
		Provider: "mistral",
		Timeout:  cfg.timeout,
	}), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "rest":
		if cfg.databaseURL == "" || cfg.databaseKey == "" {
			return nil, fmt.Errorf("catsearch: %w", domain.NewMissingCredential("supabase url or key"))
		}
		s, err := dbRest.NewStore(dbRest.Config{
			URL:     cfg.databaseURL,
			Key:     cfg.databaseKey,
			Schema:  cfg.schema,
			Timeout: cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("catsearch: create rest store: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.dsn == "" {
			return nil, fmt.Errorf("catsearch: %w", domain.NewMissingCredential("postgres dsn"))
		}
		s, err := dbPostgres.NewStore(ctx, dbPostgres.Config{
			DSN:     cfg.dsn,
			Schema:  cfg.schema,
			Timeout: cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("catsearch: create postgres store: %w", err)
		}
		return s, nil
	case "":
		return nil, errors.New("catsearch: database required (use WithSupabase or WithPostgres)")
	default:
		return nil, fmt.Errorf("catsearch: unknown driver %q", cfg.driver)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search embeds query and returns the matching categories in database order.
// No match is an empty, non-nil slice.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (out []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch(start, err, len(query), len(out)) }()

	p := searchParams{threshold: request.DefaultThreshold, limit: request.DefaultLimit}
	for _, o := range opts {
		o(&p)
	}
	req := request.New(query, p.threshold, p.limit)

	set, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, err
	}

	view := render.Build(set)
	out = make([]Result, len(view.Entries))
	for i, e := range view.Entries {
		out[i] = Result{
			Label:      e.Label,
			Asset:      e.Asset,
			Similarity: e.Similarity,
			Fields:     e.Row,
		}
	}
	return out, nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
