package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vocabhub/anki-gateway/internal/anki"
	"github.com/vocabhub/anki-gateway/internal/auth"
	"github.com/vocabhub/anki-gateway/internal/channel"
	"github.com/vocabhub/anki-gateway/internal/channel/telegram"
	"github.com/vocabhub/anki-gateway/internal/config"
	"github.com/vocabhub/anki-gateway/internal/engine"
	"github.com/vocabhub/anki-gateway/internal/enrich"
	"github.com/vocabhub/anki-gateway/internal/health"
	"github.com/vocabhub/anki-gateway/internal/logging"
	"github.com/vocabhub/anki-gateway/internal/lookup"
	"github.com/vocabhub/anki-gateway/internal/server"
	"github.com/vocabhub/anki-gateway/internal/session"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	logger := logging.WithComponent("main")
	logger.Info("Starting anki-gateway", "version", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.Logging.Level)

	ctx := context.Background()

	ankiClient := anki.NewClient(anki.Config{
		URL:            cfg.Anki.URL,
		ProbeTimeout:   cfg.Anki.GetProbeTimeout(),
		RequestTimeout: cfg.Anki.GetRequestTimeout(),
	}, logging.WithComponent("anki"))

	enricher := enrich.NewEnricher(enrich.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
	}, logging.WithComponent("enrich"))

	sessions := session.NewStore()
	eng := engine.New(
		auth.NewAuthorizer(cfg.Telegram.AllowedUserIDs),
		sessions,
		ankiClient,
		lookup.NewCoordinator(ankiClient, cfg.Decks.Search),
		enricher,
		logging.WithComponent("engine"),
	)

	monitor := health.NewMonitor(ankiClient, enricher, 30*time.Second, logging.WithComponent("health"))
	if err := monitor.Start(); err != nil {
		logger.Error("Failed to start health monitor", "error", err)
		os.Exit(1)
	}

	adapter := telegram.NewTelegramAdapter(cfg.Telegram.Token)
	if !adapter.IsEnabled() {
		logger.Error("Telegram token is not configured")
		os.Exit(1)
	}
	if err := adapter.Start(ctx); err != nil {
		logger.Error("Failed to start adapter", "adapter", adapter.Name(), "error", err)
		os.Exit(1)
	}
	logger.Info("Adapter started", "adapter", adapter.Name())

	go func() {
		for msg := range adapter.Incoming() {
			go dispatch(ctx, eng, adapter, msg, logger)
		}
	}()

	srv := server.New(cfg, monitor, sessions, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := adapter.Stop(); err != nil {
		logger.Error("Failed to stop adapter", "adapter", adapter.Name(), "error", err)
	}
	monitor.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}

// dispatch runs one inbound event through the engine and delivers the
// replies. Per-user ordering is enforced by the session store, so
// events can be handled concurrently here.
func dispatch(ctx context.Context, eng *engine.Engine, adapter channel.ChannelAdapter, msg *channel.Message, logger *slog.Logger) {
	for _, resp := range eng.Handle(ctx, msg) {
		if err := adapter.SendMessage(msg.UserID, resp); err != nil {
			logger.Error("Failed to send reply", "user", msg.UserID, "error", err)
		}
	}
}
