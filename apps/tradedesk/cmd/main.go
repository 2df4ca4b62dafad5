package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradedesk/apps/tradedesk/internal/activity"
	"tradedesk/apps/tradedesk/internal/api"
	"tradedesk/apps/tradedesk/internal/artifact"
	"tradedesk/apps/tradedesk/internal/config"
	"tradedesk/apps/tradedesk/internal/desk"
	"tradedesk/apps/tradedesk/internal/gate"
	"tradedesk/apps/tradedesk/internal/guard"
	"tradedesk/apps/tradedesk/internal/ledger"
	"tradedesk/apps/tradedesk/internal/scanner"
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.String("rpc_url", cfg.RpcURL),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("orderbook", cfg.OrderBookAddress),
		zap.String("docreg", cfg.DocRegistryAddress),
		zap.String("vault", cfg.VaultAddress),
		zap.Uint64("buyer_window", cfg.BuyerWindow),
		zap.Uint64("trader_window", cfg.TraderWindow),
		zap.Int("api_port", cfg.APIPort),
	)

	// Establish the ledger session (RPC + signing key + network check)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	client, err := ledger.Dial(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to establish ledger session", zap.Error(err))
	}
	defer client.Close()

	store := artifact.NewStore(cfg.ArtifactStoreURL, cfg.ArtifactStoreToken, logger)
	scan := scanner.NewScanner(client, client, logger)
	gates := gate.NewEvaluator(client)

	// Each desk owns its activity log; guards report into the log of the
	// desk whose action they are protecting.
	buyerLog := activity.NewLog()
	traderLog := activity.NewLog()
	docLog := activity.NewLog()
	supplierLog := activity.NewLog()

	buyer := desk.NewBuyer(client, scan, guard.NewGuard(client, buyerLog, logger), cfg.BuyerWindow, buyerLog, logger)
	trader := desk.NewTrader(client, scan, gates, guard.NewGuard(client, traderLog, logger), cfg.TraderWindow, traderLog, logger)
	documents := desk.NewDocuments(client, scan, gates, store, docLog, logger)
	supplier := desk.NewSupplier(client, guard.NewGuard(client, supplierLog, logger), supplierLog, logger)

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort, buyer, trader, documents, supplier, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	logger.Info("Application shutdown complete")
}
