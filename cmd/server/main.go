package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/questionbank/internal/config"
	"github.com/JonMunkholm/questionbank/internal/ingest"
	"github.com/JonMunkholm/questionbank/internal/logging"
	"github.com/JonMunkholm/questionbank/internal/store"
	"github.com/JonMunkholm/questionbank/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"batch_size", cfg.Ingest.BatchSize,
		"validation_mode", cfg.Ingest.ValidationMode,
		"upload_max_concurrent", cfg.Ingest.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	profile, err := config.LoadRuleProfile(cfg.Ingest.RulesFile)
	if err != nil {
		slog.Error("failed to load rule profile", "error", err)
		os.Exit(1)
	}
	if profile != nil {
		slog.Info("rule profile loaded", "file", cfg.Ingest.RulesFile)
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	slog.Info("connected to database", "name", store.DatabaseName(cfg.Database.URL))

	questions := store.NewQuestionStore(pool, cfg.Ingest.UseCopy)
	if cfg.Database.EnsureSchema {
		if err := questions.EnsureSchema(ctx, cfg.Database.UniqueContent); err != nil {
			slog.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
	}

	ingester := ingest.New(questions, ingest.OptionsFromConfig(cfg.Ingest, profile))
	limiter := ingest.NewUploadLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime)

	server := web.NewServer(ingester, questions, limiter, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
