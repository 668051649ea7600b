// Command memoryd is the daemon entrypoint: it wires the Store, Model
// Adapter, Message Router, loopback HTTP ingestion server, and stdio MCP
// search surface into a single process (§5), then runs the HTTP listener
// and the MCP stdio reader concurrently until either exits or the process
// receives a termination signal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/claude-mem/memoryd/internal/config"
	"github.com/claude-mem/memoryd/internal/ingestion"
	"github.com/claude-mem/memoryd/internal/logging"
	"github.com/claude-mem/memoryd/internal/modeladapter"
	"github.com/claude-mem/memoryd/internal/router"
	"github.com/claude-mem/memoryd/internal/search"
	"github.com/claude-mem/memoryd/internal/store"
)

func main() {
	cfg := config.Load()
	log := logging.New(os.Getenv("CLAUDE_MEM_CONSOLE") != "")

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to create db directory")
	}

	s, err := store.Open(cfg.DBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer s.Close()

	adapter := newAdapter(cfg, log)
	defer adapter.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := &router.Processor{
		Store:   s,
		Adapter: adapter,
		Log:     log,
	}
	rt := router.New(ctx, proc, log, time.Duration(cfg.BatchWindowMS)*time.Millisecond)
	proc.Router = rt

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	ingestSrv := ingestion.New(addr, s, rt, cfg.SkipTools, log)

	mcpSrv := search.NewServer(s)

	errCh := make(chan error, 2)

	go func() {
		if err := ingestSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ingestion server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		if err := search.Serve(mcpSrv); err != nil {
			errCh <- fmt.Errorf("mcp server: %w", err)
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server exited unexpectedly")
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := ingestSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ingestion server shutdown error")
	}
	rt.Shutdown()
}

// newAdapter selects the remote HTTP-backed Model Adapter when an
// OpenRouter-compatible endpoint is configured via environment variables,
// falling back to the local stub otherwise (§3's local variant is
// explicitly out of scope for this daemon; see DESIGN.md).
func newAdapter(cfg config.Config, log zerolog.Logger) modeladapter.Adapter {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("no OPENROUTER_API_KEY set; using local adapter stub, generation/embedding calls will fail")
		return modeladapter.NewLocal()
	}

	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return modeladapter.NewRemote(modeladapter.RemoteConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		GenModel:   cfg.GenModel,
		EmbedModel: cfg.EmbedModel,
	}, log)
}
