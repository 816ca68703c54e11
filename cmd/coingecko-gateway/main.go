package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/coingecko-gateway/internal/config"
	"github.com/Sternrassler/coingecko-gateway/internal/server"
	"github.com/Sternrassler/coingecko-gateway/pkg/cache"
	"github.com/Sternrassler/coingecko-gateway/pkg/client"
	"github.com/Sternrassler/coingecko-gateway/pkg/coingecko"
	"github.com/Sternrassler/coingecko-gateway/pkg/gateway"
	"github.com/Sternrassler/coingecko-gateway/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Gateway stopped")
	}
}

// app is the wired gateway.
type app struct {
	server *server.Server
	close  func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, closeStore, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	httpClient := client.NewHTTPClient(cfg.CoinGecko.HTTPTimeout, cfg.CoinGecko.MaxRedirects)
	fetcher := client.NewRetryingFetcher(
		client.NewHTTPFetcher(httpClient, cfg.CoinGecko.UserAgent),
		cfg.CoinGecko.BackoffPolicy(),
	)
	upstream, err := coingecko.New(fetcher, cfg.CoinGecko.BaseURL)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("create upstream client: %w", err)
	}

	orchestrator := cache.NewOrchestrator(store,
		cache.WithLogger(logging.NewLogger("cache")),
		cache.WithCoalescing(cfg.Cache.Coalesce),
	)
	svc := gateway.New(upstream, orchestrator, logging.NewLogger("gateway"))

	return &app{
		server: server.New(svc, logging.NewLogger("server")),
		close:  closeStore,
	}, nil
}

// newStore selects Redis when a URL is configured, memory otherwise.
func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, func() error, error) {
	if cfg.RedisURL == "" {
		store := cache.NewMemoryStore()
		sweepCtx, cancel := context.WithCancel(ctx)
		go store.RunSweeper(sweepCtx, sweepInterval)
		return store, func() error { cancel(); return nil }, nil
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisStore(redisClient), redisClient.Close, nil
}

// run serves until ctx is done, then drains in-flight requests.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	backend := "memory"
	if cfg.Cache.RedisURL != "" {
		backend = "redis"
	}

	addr := ":" + cfg.Server.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", addr).
			Str("upstream", cfg.CoinGecko.BaseURL).
			Str("cache", backend).
			Bool("coalesce", cfg.Cache.Coalesce).
			Msg("Starting gateway")
		if err := a.server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
