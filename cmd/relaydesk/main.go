package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/relaydesk/relaydesk/internal/ai"
	"github.com/relaydesk/relaydesk/internal/config"
	"github.com/relaydesk/relaydesk/internal/dedup"
	"github.com/relaydesk/relaydesk/internal/responder"
	"github.com/relaydesk/relaydesk/internal/server"
	"github.com/relaydesk/relaydesk/internal/telemetry"
	"github.com/relaydesk/relaydesk/internal/webhook"
	"github.com/relaydesk/relaydesk/internal/zendesk"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer("relaydesk", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	guard, closeGuard, err := buildGuard(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dedup store: %v", err)
	}
	defer closeGuard()

	conversations := zendesk.NewClient(
		cfg.Zendesk.BaseURL,
		cfg.Zendesk.KeyID,
		cfg.Zendesk.KeySecret,
		zendesk.WithBotIdentity(cfg.Assistant.Name, cfg.Assistant.AvatarURL),
		zendesk.WithSwitchboardIntegration(cfg.Zendesk.SwitchboardIntegrationID),
	)

	tickets := zendesk.NewSupportClient(cfg.Support.Subdomain, cfg.Support.Email, cfg.Support.APIToken)

	aiOpts := []ai.ClientOption{
		ai.WithModel(cfg.AI.Model),
		ai.WithSystemPrompt(cfg.AI.SystemPrompt),
	}
	if cfg.AI.BaseURL != "" {
		aiOpts = append(aiOpts, ai.WithBaseURL(cfg.AI.BaseURL))
	}
	generator := ai.NewClient(cfg.AI.APIKey, aiOpts...)

	resp := responder.New(conversations, tickets, generator, logger)
	handler := webhook.NewHandler(guard, resp, logger)

	srv := server.New(cfg.Server.Port, cfg.RunBudgetDuration(), logger)
	srv.Router.Post("/api/webhook", handler.HandlePost)
	srv.Router.Head("/api/webhook", handler.HandleHead)
	srv.Router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigCh:
		logger.Info("shutdown signal received, stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}

func buildGuard(cfg *config.Config) (dedup.Guard, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		return dedup.NewMemoryStore(cfg.DedupTTLDuration()), func() {}, nil
	default:
		store, err := dedup.NewSQLiteStore(cfg.Storage.SQLite.Path, cfg.DedupTTLDuration())
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
