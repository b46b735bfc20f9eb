// Package clients provisions the embedding and database handles shared by
// every search interaction in the process.
package clients

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/config"
	"github.com/kailas-cloud/catsearch/internal/db"
	dbPostgres "github.com/kailas-cloud/catsearch/internal/db/postgres"
	dbRest "github.com/kailas-cloud/catsearch/internal/db/rest"
	"github.com/kailas-cloud/catsearch/internal/domain"
	openaiEmb "github.com/kailas-cloud/catsearch/internal/transport/openai"
)

// Registry builds each client at most once. Repeated calls return the same
// handle, or the same error if construction failed.
type Registry struct {
	embedder func() (*openaiEmb.Embedder, error)
	store    func() (db.Store, error)

	mu     sync.Mutex
	opened db.Store
}

// New creates a registry. Nothing is constructed until first use.
func New(cfg *config.Config, creds config.Credentials, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{}
	r.embedder = sync.OnceValues(func() (*openaiEmb.Embedder, error) {
		return newEmbedder(cfg, creds, logger)
	})
	r.store = sync.OnceValues(func() (db.Store, error) {
		s, err := newStore(cfg, creds)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.opened = s
		r.mu.Unlock()
		logger.Info("database client ready",
			zap.String("driver", s.Driver()),
			zap.String("function", cfg.Database.Function),
		)
		return s, nil
	})
	return r
}

// Embedder returns the embedding client.
func (r *Registry) Embedder() (*openaiEmb.Embedder, error) { return r.embedder() }

// Store returns the database client.
func (r *Registry) Store() (db.Store, error) { return r.store() }

// Provision builds both clients and reports every failure.
func (r *Registry) Provision() error {
	_, embErr := r.Embedder()
	_, dbErr := r.Store()
	return errors.Join(embErr, dbErr)
}

// Close releases the database client if it was built.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opened != nil {
		r.opened.Close()
		r.opened = nil
	}
}

func newEmbedder(cfg *config.Config, creds config.Credentials, logger *zap.Logger) (*openaiEmb.Embedder, error) {
	if creds.EmbeddingAPIKey == "" {
		return nil, domain.NewMissingCredential(config.EnvEmbeddingAPIKey)
	}
	return openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   creds.EmbeddingAPIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Model:    cfg.Embedding.Model,
		Provider: cfg.Embedding.Provider,
		Timeout:  seconds(cfg.Embedding.TimeoutSec),
		Logger:   logger,
	}), nil
}

// newStore requires the Supabase URL and key for every driver; postgres
// additionally needs a DSN.
func newStore(cfg *config.Config, creds config.Credentials) (db.Store, error) {
	timeout := seconds(cfg.Database.TimeoutSec)

	if creds.DatabaseURL == "" {
		return nil, domain.NewMissingCredential(config.EnvDatabaseURL)
	}
	if creds.DatabaseKey == "" {
		return nil, domain.NewMissingCredential(config.EnvDatabaseKey)
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if creds.DatabaseDSN == "" {
			return nil, domain.NewMissingCredential(config.EnvDatabaseDSN)
		}
		s, err := dbPostgres.NewStore(context.Background(), dbPostgres.Config{
			DSN:      creds.DatabaseDSN,
			Schema:   cfg.Database.Schema,
			MaxConns: cfg.Database.MaxConns,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return s, nil
	case config.DriverREST, "":
		s, err := dbRest.NewStore(dbRest.Config{
			URL:     creds.DatabaseURL,
			Key:     creds.DatabaseKey,
			Schema:  cfg.Database.Schema,
			Timeout: timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create rest store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
