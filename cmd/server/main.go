// cmd/server/main.go
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/sozercan/image-verdict/internal/aiornot"
	"github.com/sozercan/image-verdict/internal/analyzer"
	"github.com/sozercan/image-verdict/internal/config"
	"github.com/sozercan/image-verdict/internal/llm"
	"github.com/sozercan/image-verdict/internal/metrics"
	"github.com/sozercan/image-verdict/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	detector, err := aiornot.NewClient(cfg.AIOrNot)
	if err != nil {
		log.Fatalf("failed to create AIorNOT client: %v", err)
	}

	var llmProvider llm.Provider
	if cfg.OpenAI.Enabled() {
		provider, err := llm.NewOpenAI(&cfg.OpenAI)
		if err != nil {
			log.Fatalf("failed to create LLM provider: %v", err)
		}
		llmProvider = provider
	} else {
		slog.Warn("OPENAI_API_KEY not set, artifact detection disabled")
	}

	a, err := analyzer.New(detector, llmProvider)
	if err != nil {
		log.Fatalf("failed to create analyzer: %v", err)
	}

	metrics.Register()

	srv := server.New(*cfg, a)
	slog.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
