// Package main runs the wallet backend server: session authentication,
// cached balance/price aggregation, node RPC access, and transaction
// classification behind one HTTP surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"wallet-backend/internal/api"
	"wallet-backend/internal/auth"
	"wallet-backend/internal/cache"
	"wallet-backend/internal/classify"
	"wallet-backend/internal/config"
	"wallet-backend/internal/evmrpc"
	"wallet-backend/internal/observability"
	"wallet-backend/internal/provider"
	"wallet-backend/internal/resilience"
	"wallet-backend/internal/storage"
	"wallet-backend/internal/storage/memory"
	pgstore "wallet-backend/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	loadEnvFile()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory user store instead of PostgreSQL")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users, cleanup, err := createUserStore(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create user store: %v", err)
	}
	defer cleanup()

	metrics := observability.NewMetrics("")
	chains := cfg.ChainTable()
	retry := resilience.DefaultRetryOptions(logger, metrics)

	sealer, err := auth.NewSealer(cfg.Auth.Secret)
	if err != nil {
		logger.Fatalf("Failed to create token sealer: %v", err)
	}
	authService := auth.NewService(users, sealer, logger, metrics)

	rpcClient := evmrpc.NewChainClient(cfg.RPCEndpointTable(), logger, metrics)
	chainData := provider.NewChainDataClient(cfg.Providers.ChainDataURL, cfg.Providers.ChainDataAPIKey)
	priceClient := provider.NewPriceClient(cfg.Providers.PriceURL, cfg.Providers.PriceAPIKey)

	balances := cache.NewBalanceCache(chainData, chains, retry, metrics)
	decimals, err := cache.NewDecimalsCache(rpcClient, chains, retry, metrics)
	if err != nil {
		logger.Fatalf("Failed to create decimals cache: %v", err)
	}
	tokenList := cache.NewTokenListCache(priceClient, retry, logger)
	historyPrices := cache.NewHistoryPriceCache(priceClient, retry, metrics)

	engine := classify.NewEngine(decimals, metrics)

	go tokenList.RunRefresher(ctx, cache.DefaultTokenListInterval)

	server := api.NewServer(
		authService, balances, chainData, engine, rpcClient,
		tokenList, historyPrices, chains, logger, metrics,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		logger.WithError(err).Error("HTTP server error")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}

	logger.Info("shutdown complete")
}

// createUserStore selects the postgres store or, with -use-memory or no
// configured URL, the in-memory one.
func createUserStore(ctx context.Context, cfg *config.Config, useMemory bool) (storage.UserStore, func(), error) {
	if useMemory || cfg.Postgres.URL == "" {
		return memory.NewUserStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pgstore.NewUserStore(pool), pool.Close, nil
}

// loadEnvFile loads environment variables from a .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
