package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidewater/seabridge/internal/config"
	"github.com/tidewater/seabridge/internal/fulfill"
	"github.com/tidewater/seabridge/internal/gateway"
	"github.com/tidewater/seabridge/internal/opensea"
	"github.com/tidewater/seabridge/internal/server"
)

const version = "0.1.0"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	client := opensea.NewClient(cfg.OpenSeaAPIKey).WithBaseURL(cfg.OpenSeaBaseURL)
	svc := gateway.New(client)
	resolver := fulfill.New(client, cfg.EnableFulfillment, cfg.EnableTestTx)

	srv := server.NewServer(svc, resolver, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting gateway", "version", version,
		"fulfillment", cfg.EnableFulfillment, "testTx", cfg.EnableTestTx)

	if err := srv.Start(ctx, cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("gateway shut down")
}
