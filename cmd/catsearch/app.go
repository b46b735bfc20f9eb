package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/catsearch/internal/clients"
	"github.com/kailas-cloud/catsearch/internal/config"
	"github.com/kailas-cloud/catsearch/internal/metrics"
	categoryrepo "github.com/kailas-cloud/catsearch/internal/repository/category"
	healthuc "github.com/kailas-cloud/catsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/catsearch/internal/usecase/search"
)

// app is the composition root shared by serve and query.
type app struct {
	cfg     config.Config
	clients *clients.Registry
	search  *searchuc.Service
	health  *healthuc.Service
}

// loadSettings reads .env, the YAML config for env and the credentials.
func loadSettings(env string) (config.Config, config.Credentials, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, config.Credentials{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, config.Credentials{}, fmt.Errorf("failed to load config: %w", err)
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return config.Config{}, config.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	return cfg, creds, nil
}

// newApp provisions both clients up front. A missing credential aborts here.
func newApp(cfg config.Config, creds config.Credentials, logger *zap.Logger) (*app, error) {
	metrics.RegisterSearchMetrics()

	reg := clients.New(&cfg, creds, logger)
	if err := reg.Provision(); err != nil {
		return nil, err
	}

	embedder, err := reg.Embedder()
	if err != nil {
		return nil, err
	}
	store, err := reg.Store()
	if err != nil {
		return nil, err
	}

	matcher := categoryrepo.New(store, cfg.Database.Function)
	return &app{
		cfg:     cfg,
		clients: reg,
		search:  searchuc.New(embedder, matcher),
		health:  healthuc.New(healthuc.CheckerFunc(store.Ping), embedder, logger),
	}, nil
}

func (a *app) Close() { a.clients.Close() }
