// cmd/dashboard/main.go
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/sozercan/image-verdict/api/server"
	"github.com/sozercan/image-verdict/apimodels"
	"github.com/sozercan/image-verdict/internal/client"
	"github.com/sozercan/image-verdict/internal/config"
	"github.com/sozercan/image-verdict/internal/metrics"
	"github.com/sozercan/image-verdict/internal/store"
	"github.com/sozercan/image-verdict/internal/upload"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	if err := cfg.ValidateDashboard(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	analysisClient, err := client.New(cfg.Dashboard.AnalysisURL, cfg.Dashboard.RequestTimeout)
	if err != nil {
		log.Fatalf("failed to create analysis client: %v", err)
	}

	results := store.New()
	results.Subscribe(func(result *apimodels.AnalysisResult) {
		if result == nil {
			slog.Debug("result cleared")
			return
		}
		slog.Debug("result replaced", "id", result.ID, "status", result.Status)
	})
	controller := upload.NewController(analysisClient, results)

	metrics.Register()

	srv := server.New(*cfg, controller, results)
	slog.Info("starting dashboard", "host", cfg.Dashboard.Host, "port", cfg.Dashboard.Port, "analysis_url", cfg.Dashboard.AnalysisURL)
	if err := srv.Run(); err != nil {
		log.Fatalf("dashboard failed: %v", err)
	}
}
