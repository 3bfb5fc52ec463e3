package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/products-api/internal/adapter/handler"
	"github.com/rl1809/products-api/internal/adapter/storage"
	"github.com/rl1809/products-api/internal/config"
	"github.com/rl1809/products-api/internal/core/service"
	"github.com/rl1809/products-api/internal/obs"
	"github.com/rl1809/products-api/internal/port"
	"github.com/rl1809/products-api/internal/web"
)

const (
	healthInterval = 30 * time.Second
	healthTimeout  = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	envPath := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := config.LoadDotEnv(*envPath); err != nil {
		obs.InitLogger("info", false)
		obs.Logger.Fatal().Err(err).Msg("load env")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		obs.InitLogger("info", false)
		obs.Logger.Fatal().Err(err).Msg("load config")
	}
	obs.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize product store
	repo, closeRepo, err := storage.Open(cfg.Store)
	if err != nil {
		obs.Logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
	}
	obs.Logger.Info().Str("driver", cfg.Store.Driver).Msg("product store configured")

	products := service.NewProductService(repo)

	// Initialize rate limit counters
	var (
		limitStore port.RateLimitStore
		rdb        *redis.Client
	)
	if cfg.RateLimit.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			obs.Logger.Warn().Err(err).Str("addr", cfg.RateLimit.RedisAddr).Msg("redis unreachable, rate limiting fails open until it recovers")
		} else {
			obs.Logger.Info().Str("addr", cfg.RateLimit.RedisAddr).Msg("connected to redis")
		}
		limitStore = storage.NewRedisAdapter(rdb)
	} else {
		limitStore = storage.NewMemoryRateLimitStore()
	}

	// Initialize gRPC health server
	var (
		grpcServer *grpc.Server
		grpcHealth *handler.GRPCHandler
		wg         sync.WaitGroup
	)
	if cfg.GRPCEnabled() {
		grpcServer = grpc.NewServer()
		grpcHealth = handler.NewGRPCHandler(products)
		grpcHealth.Register(grpcServer)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			obs.Logger.Fatal().Err(err).Str("addr", cfg.GRPCAddr).Msg("grpc listen")
		}

		wg.Add(2)
		go func() {
			defer wg.Done()
			obs.Logger.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC health server listening")
			if err := grpcServer.Serve(lis); err != nil {
				obs.Logger.Error().Err(err).Msg("gRPC server error")
			}
		}()
		go func() {
			defer wg.Done()
			grpcHealth.Watch(ctx, healthInterval, healthTimeout)
		}()
	}

	// Initialize HTTP server
	router := handler.NewRouter(handler.NewHTTPHandler(products), handler.RouterOptions{
		Static:      web.Static(),
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
		Limiter:     handler.NewRateLimiter(limitStore, cfg.RateLimit.Max, cfg.RateLimit.Window),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obs.Logger.Info().Str("addr", cfg.HTTPAddr()).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	obs.Logger.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		obs.Logger.Error().Err(err).Msg("HTTP shutdown")
	}
	obs.Logger.Info().Msg("HTTP server stopped")

	// Stop gRPC server and the health watcher
	cancel()
	if grpcServer != nil {
		grpcHealth.Shutdown()
		grpcServer.GracefulStop()
		obs.Logger.Info().Msg("gRPC server stopped")
	}
	wg.Wait()

	// Close connections
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			obs.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if err := closeRepo(shutdownCtx); err != nil {
		obs.Logger.Error().Err(err).Msg("close store")
	}
	obs.Logger.Info().Msg("connections closed")
}
