// Package main is the entrypoint for the SocialPulse analysis orchestrator:
//
//	orchestrator [module_code|all]
//
// It loads the ingested dataset, runs the selected analysis modules in
// order, and persists every result envelope through the configured sink.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"socialpulse/internal/apiclient"
	"socialpulse/internal/config"
	"socialpulse/internal/llm"
	"socialpulse/internal/orchestrator"
	"socialpulse/internal/sink"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("orchestrator failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadOrchestrator()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	selector := orchestrator.SelectorAll
	if len(os.Args) > 1 {
		selector = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("create llm provider: %w", err)
	}
	slog.Info("llm provider initialized", "provider", provider.Name(), "model", provider.Model())

	quota := llm.NewQuotaLimiter(cfg.LLM)

	var api apiclient.Client
	if cfg.API.BaseURL != "" {
		api = apiclient.NewHTTPClient(cfg.API)
	}

	var s sink.Sink
	switch cfg.Sink {
	case "api":
		s = sink.NewAPISink(api, cfg.ClientID)
	default:
		s = sink.NewFileSink(cfg.OutputsDir)
	}

	o := orchestrator.New(cfg, provider, quota, s, api)
	summary, err := o.Run(ctx, selector)
	if err != nil {
		return err
	}

	fmt.Printf("run complete: %d ok, %d failed\n", summary.Succeeded, summary.Failed)
	return nil
}
