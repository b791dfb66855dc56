/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave management server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, environment, flags)
  2. Build the zap logger
  3. Open the SQLite store
  4. Pick the locker (Redis when configured, in-process otherwise)
  5. Wire the request service, handler and router
  6. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional; environment variables
           with the LEAVE_ prefix override file values)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with defaults (./data/leave.db, port 8080)
  ./server

  # Run with a config file
  ./server -config=./config/config.yaml

  # Override via environment
  LEAVE_SERVER_PORT=3000 LEAVE_DB_PATH=":memory:" ./server

SEE ALSO:
  - config/config.go: Configuration loading
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aasimdev/absentify-inhouse-sub002/api"
	"github.com/aasimdev/absentify-inhouse-sub002/config"
	"github.com/aasimdev/absentify-inhouse-sub002/engine"
	"github.com/aasimdev/absentify-inhouse-sub002/lock"
	"github.com/aasimdev/absentify-inhouse-sub002/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DB.Path), zap.Error(err))
	}
	defer st.Close()

	var locker lock.Locker
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to reach redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer client.Close()
		locker = lock.NewRedis(client)
		logger.Info("using redis locker", zap.String("addr", cfg.Redis.Addr))
	} else {
		locker = lock.NewMemory()
		logger.Info("using in-process locker")
	}

	svc := engine.NewService(engine.ServiceConfig{
		Store:    st,
		Locker:   locker,
		Fiscal:   engine.FiscalConfig{StartMonth: time.Month(cfg.Fiscal.StartMonth)},
		Logger:   logger,
		LockTTL:  cfg.Lock.TTL,
		LockWait: cfg.Lock.Wait,
	})

	handler := api.NewHandler(svc, logger)
	router := api.NewRouter(handler, cfg.Server.AllowOrigins)

	if cfg.Rollover.Enabled {
		scheduler := api.NewRolloverScheduler(st,
			engine.FiscalConfig{StartMonth: time.Month(cfg.Fiscal.StartMonth)}, logger)
		if cfg.Rollover.Interval > 0 {
			scheduler.CheckInterval = cfg.Rollover.Interval
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zc.Level = level
	return zc.Build()
}
