package catsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	embedder      Embedder
	embeddingKey  string
	embeddingURL  string
	embeddingName string

	driver      string // "rest" or "postgres"
	databaseURL string
	databaseKey string
	dsn         string
	schema      string
	procedure   string

	timeout    time.Duration
	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMistral embeds queries with mistral-embed using the given API key.
func WithMistral(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingKey = apiKey
	})
}

// WithEmbeddingEndpoint overrides the OpenAI-compatible base URL and model.
// Empty values keep the Mistral defaults.
func WithEmbeddingEndpoint(baseURL, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingURL = baseURL
		c.embeddingName = model
	})
}

// WithEmbedder replaces the built-in embedding client.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithSupabase calls the match function through the Supabase REST gateway.
func WithSupabase(projectURL, serviceRoleKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "rest"
		c.databaseURL = projectURL
		c.databaseKey = serviceRoleKey
	})
}

// WithPostgres calls the match function over a direct Postgres connection.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
	})
}

// WithSchema sets the schema the match function lives in. Default: public.
func WithSchema(schema string) Option {
	return optionFunc(func(c *clientConfig) {
		c.schema = schema
	})
}

// WithProcedure sets the name of the match function. Default: match_categories.
func WithProcedure(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.procedure = name
	})
}

// WithTimeout bounds each remote call. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// SearchOption tunes a single search.
type SearchOption func(*searchParams)

type searchParams struct {
	threshold float64
	limit     int
}

// Threshold sets the minimum similarity, clamped to [0, 1]. Default: 0.2.
func Threshold(v float64) SearchOption {
	return func(p *searchParams) { p.threshold = v }
}

// Limit sets the maximum number of results, clamped to [1, 50]. Default: 10.
func Limit(n int) SearchOption {
	return func(p *searchParams) { p.limit = n }
}
