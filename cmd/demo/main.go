package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rl1809/products-api/internal/adapter/storage"
	"github.com/rl1809/products-api/internal/config"
	"github.com/rl1809/products-api/internal/core/service"
	"github.com/rl1809/products-api/internal/demo"
	"github.com/rl1809/products-api/internal/obs"
)

func main() {
	configPath := flag.String("config", "", "optional TOML config file")
	envPath := flag.String("env", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	obs.InitLogger("info", true)
	if err := config.LoadDotEnv(*envPath); err != nil {
		obs.Logger.Fatal().Err(err).Msg("load env")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		obs.Logger.Fatal().Err(err).Msg("load config")
	}
	obs.InitLogger(cfg.Log.Level, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := storage.Open(cfg.Store)
	if err != nil {
		obs.Logger.Fatal().Err(err).Msg("open store")
	}
	defer closeRepo(context.Background())

	err = demo.Run(ctx, service.NewProductService(repo), func(line string) {
		fmt.Println(line)
	})
	if err != nil {
		obs.Logger.Error().Err(err).Msg("demo failed")
		os.Exit(1)
	}
}
