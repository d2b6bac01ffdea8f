// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ai-coding-tutor/internal/config"
	"ai-coding-tutor/internal/domain/ports/adapter"
	"ai-coding-tutor/internal/domain/ports/repository"
	aiAdapters "ai-coding-tutor/internal/infra/adapters/ai"
	"ai-coding-tutor/internal/infra/adapters/hints"
	bdg "ai-coding-tutor/internal/infra/db/badger"
	"ai-coding-tutor/internal/infra/logging"
	"ai-coding-tutor/internal/infra/metrics"
	"ai-coding-tutor/internal/infra/owner"
	red "ai-coding-tutor/internal/infra/redis"
	"ai-coding-tutor/internal/infra/web"
	"ai-coding-tutor/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	// API keys may come from a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Storage backend ----
	var stateRepo repository.StateRepository
	switch cfg.Storage.Backend {
	case "redis":
		client, err := red.NewClient(ctx, &cfg.Storage.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		stateRepo = red.NewStateRepo(client)
		logger.Info().Str("backend", "redis").Str("addr", cfg.Storage.Redis.URL).Msg("state store ready")
	default:
		repo, err := bdg.Open(cfg.Storage.Badger.Dir)
		if err != nil {
			logger.Fatal().Err(err).Msg("badger")
		}
		stateRepo = repo
		logger.Info().Str("backend", "badger").Str("dir", cfg.Storage.Badger.Dir).Msg("state store ready")
	}
	defer stateRepo.Close()

	// ---- Record owners ----
	owners := owner.NewRegistry(stateRepo, cfg.Owner.IdleTTL, logger)
	owners.Start(ctx)
	defer owners.Close()

	// ---- AI adapter (OpenAI -> Gemini -> Workers AI) ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
	case cfg.AI.CFAccountID != "" && cfg.AI.CFAPIToken != "":
		ai, err = aiAdapters.NewWorkersAIAdapter(cfg.AI.CFAccountID, cfg.AI.CFAPIToken, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("workers-ai adapter")
		}
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAdapter()
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key, ai.gemini_key, or ai.cf_account_id + ai.cf_api_token")
	}
	logger.Info().Str("provider", ai.Provider()).Str("model", cfg.AI.DefaultModel).Msg("AI adapter ready")

	// ---- Use cases ----
	stateUC := usecase.NewStateUseCase(owners, cfg.Tutor.RetentionWindow)
	tutorUC := usecase.NewTutorUseCase(ai, hints.NewKeywordHinter(), usecase.TutorParams{
		Model:              cfg.AI.DefaultModel,
		Temperature:        cfg.AI.Temperature,
		MaxOutputTokens:    cfg.AI.MaxOutputTokens,
		PromptHistoryLimit: cfg.Tutor.PromptHistoryLimit,
		FallbackMessage:    cfg.Tutor.FallbackMessage,
	}, logger)

	// ---- HTTP server ----
	srv := web.NewServer(stateUC, tutorUC, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
