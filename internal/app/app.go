// Package app assembles the long-lived components from configuration.
// Both the HTTP server and the CLI build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/drafts"
	"github.com/dgallion1/citegest/internal/llm"
	"github.com/dgallion1/citegest/internal/loader"
	"github.com/dgallion1/citegest/internal/modes"
	"github.com/dgallion1/citegest/internal/pathstore"
	"github.com/dgallion1/citegest/internal/pipeline"
	"github.com/dgallion1/citegest/internal/retriever"
)

// App holds the wired components.
type App struct {
	Config    config.Config
	Manifest  *config.Manifest
	Loader    *loader.Loader
	Documents *retriever.Store
	Generator *modes.Generator
	Drafts    drafts.Store
	Stats     *llm.LLMStats

	log *slog.Logger
}

// New builds the components. The provider is constructed here and injected
// into the generator.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	manifest, err := config.LoadManifest(cfg.DocumentManifest)
	if err != nil {
		return nil, err
	}
	if manifest.Strategy != "" {
		cfg.DocumentStrategy = manifest.Strategy
	}

	l := loader.New(log)
	l.PDFFallback = cfg.PDFFallbackPdftotext
	if err := manifest.Register(l); err != nil {
		return nil, err
	}
	events, err := manifest.Catalog()
	if err != nil {
		return nil, err
	}

	provider, err := llm.New(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	stats := llm.NewLLMStats(time.Hour)
	gen := modes.New(llm.WithStats(provider, stats), nil, events, modes.Config{
		Limits:        cfg.Limits(),
		ContextTokens: cfg.ContextTokens,
		NoDisclaimers: !cfg.Disclaimers,
	}, log)

	store, err := openDrafts(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("components ready",
		"provider", provider.ProviderName(),
		"model", provider.ModelName(),
		"strategies", l.StrategyIDs(),
		"events", len(events.All()),
		"drafts", cfg.DraftsBackend,
	)
	return &App{
		Config:    cfg,
		Manifest:  manifest,
		Loader:    l,
		Documents: &retriever.Store{},
		Generator: gen,
		Drafts:    store,
		Stats:     stats,
		log:       log,
	}, nil
}

func openDrafts(cfg config.Config) (drafts.Store, error) {
	switch cfg.DraftsBackend {
	case config.DraftsSQLite:
		return drafts.OpenSQLite(cfg.DraftsDBPath)
	case config.DraftsPathstore:
		return drafts.NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	default:
		// Not durable: drafts live for the life of the process.
		return drafts.NewMemory(), nil
	}
}

// Deps returns the components the pipeline drives.
func (a *App) Deps() pipeline.Deps {
	return pipeline.Deps{
		Loader:    a.Loader,
		Documents: a.Documents,
		Generator: a.Generator,
		Drafts:    a.Drafts,
		Retrieval: a.Manifest.Config,
	}
}

// LoadDocument parses the file at path and publishes it, using the
// manifest's metadata and the configured strategy.
func (a *App) LoadDocument(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	job := pipeline.NewIngestJob(filepath.Base(path), a.Config.DocumentStrategy, a.Manifest.Document, data)
	pipeline.NewWorker(a.Deps(), 1, a.log).Process(ctx, job)
	if _, err := job.Result(); err != nil {
		return err
	}
	return nil
}

// Current returns the active retriever, or nil.
func (a *App) Current() *retriever.Retriever {
	if snap := a.Documents.Current(); snap != nil {
		return snap.Retriever
	}
	return nil
}

func (a *App) Close() error {
	return a.Drafts.Close()
}
