package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/cache"
	"github.com/oggyb/mawaddah/internal/config"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/server"
	"github.com/oggyb/mawaddah/internal/service/auth"
	"github.com/oggyb/mawaddah/internal/service/search"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis; member ids fall back to the database without it
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unavailable, continuing without member id sequence", "err", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	authService := auth.NewAuthService(appCtx)
	grpcServer := server.NewGRPCServer(appCtx, authService, search.NewRegistrar(appCtx))
	router := server.NewRouter(appCtx, authService)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port, "prefix", cfg.HTTP.Prefix)
		return server.RunHTTP(gctx, cfg.HTTP.Host, cfg.HTTP.Port, router)
	})
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.RunGRPC(gctx, cfg.GRPC.Host, cfg.GRPC.Port, grpcServer)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
