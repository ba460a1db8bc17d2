// Command met-proxy serves MET Malaysia lookups over HTTP, backed by the
// cached MET client.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cuaca/cuaca-go/pkg/cache"
	"github.com/cuaca/cuaca-go/pkg/client"
	"github.com/cuaca/cuaca-go/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "met-proxy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Environ())
	if err != nil {
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Setup(logging.Config{Level: level, Pretty: cfg.LogPretty, Output: os.Stderr})
	logger := logging.NewLogger("met-proxy")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientCfg := cfg.clientConfig()
	persister, closePersister, err := openPersister(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePersister()
	clientCfg.Persister = persister

	metClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create MET client: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(metClient, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("base_url", cfg.BaseURL).Msg("Starting MET proxy")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			closeClient(metClient, logger)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	return closeClient(metClient, logger)
}

// closeClient persists the cache and logs the outcome.
func closeClient(metClient *client.Client, logger zerolog.Logger) error {
	if err := metClient.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to persist cache")
		return err
	}
	logger.Info().Int("entries", metClient.Cache().Len()).Msg("Cache persisted")
	return nil
}

// openPersister selects the cache backend from the configuration. A nil
// persister means the client decides (file store from MET_CACHE_DIR, or
// memory only). The returned func releases the backend after the client
// has been closed.
func openPersister(ctx context.Context, cfg Config, logger zerolog.Logger) (cache.Persister, func(), error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redisOptions(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		logger.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
		return cache.NewRedisStore(rdb, cache.DefaultRedisKey), closer(rdb, logger), nil

	case cfg.CacheDB != "":
		store, err := cache.OpenSQLiteStore(cfg.CacheDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", cfg.CacheDB).Msg("Opened SQLite cache")
		return store, closer(store, logger), nil

	default:
		return nil, func() {}, nil
	}
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(raw string) (*redis.Options, error) {
	if strings.Contains(raw, "://") {
		opts, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: raw}, nil
}

func closer(c io.Closer, logger zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close cache backend")
		}
	}
}
