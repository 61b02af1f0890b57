// Command threads-zapier runs the HTTP gateway that bridges the Threads API
// to Zapier's action and trigger model.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"threads-zapier/internal/common/logging"
	"threads-zapier/internal/config"
	"threads-zapier/internal/handlers"
	"threads-zapier/internal/middleware"
	"threads-zapier/internal/server"
	"threads-zapier/internal/service"
	"threads-zapier/internal/storage"
	"threads-zapier/internal/threads"
)

func main() {
	// Load .env if present; real deployments set variables directly.
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()
	logger := logging.GetGlobalLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, err := newTokenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize token store", err)
		os.Exit(1)
	}

	client := threads.NewClient(cfg, logger)
	svc := service.New(client, store, logger)
	h := handlers.New(svc, cfg, logger)

	handler := middleware.NormalizePath(middleware.Logging(h.Router()))

	srv := server.New(cfg.Port, handler, logger)
	errCh := srv.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("Server failed", err)
		os.Exit(1)
	case sig := <-stop:
		logger.Info("Shutdown signal received",
			logging.Field{Key: "signal", Value: sig.String()},
		)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown did not complete cleanly", err)
	}
}

// newTokenStore selects Redis when REDIS_ADDRESS is configured, otherwise
// the in-memory store.
func newTokenStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (storage.TokenStore, error) {
	if cfg.RedisAddress == "" {
		logger.Info("Using in-memory token store")
		return storage.NewMemoryStore(), nil
	}

	db, _ := strconv.Atoi(cfg.RedisDB)
	poolSize, _ := strconv.Atoi(cfg.RedisPoolSize)
	store, err := storage.NewRedisStore(ctx, storage.RedisConfig{
		Address:  cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       db,
		PoolSize: poolSize,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Using Redis token store",
		logging.Field{Key: "address", Value: cfg.RedisAddress},
	)
	return store, nil
}
