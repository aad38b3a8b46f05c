package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/citegest/internal/api"
	"github.com/dgallion1/citegest/internal/app"
	"github.com/dgallion1/citegest/internal/config"
	"github.com/dgallion1/citegest/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize components.
	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	if cfg.DocumentPath != "" {
		if err := a.LoadDocument(ctx, cfg.DocumentPath); err != nil {
			log.Error("initial document load failed", "path", cfg.DocumentPath, "error", err)
			os.Exit(1)
		}
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(a.Config, a.Deps(), log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(api.Deps{
		Orchestrator: orch,
		Loader:       a.Loader,
		Documents:    a.Documents,
		Generator:    a.Generator,
		Drafts:       a.Drafts,
		Stats:        a.Stats,
	}, log, a.Config)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := a.Close(); err != nil {
			log.Error("close failed", "error", err)
		}
	}()

	log.Info("starting citegest", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
