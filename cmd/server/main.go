package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"stockwatch/internal/app/di"
	"stockwatch/internal/app/router"
	"stockwatch/internal/config"
	priceshandler "stockwatch/internal/feature/prices/transport/handler"
	"stockwatch/internal/platform/cache"
	infradb "stockwatch/internal/platform/db"
	infraredis "stockwatch/internal/platform/redis"
)

func main() {
	// .env for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	// db
	db, err := infradb.Open(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	// Redis
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewClient(cfg.Redis); err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		rdb = nil
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		}()
	}

	// Repository, cached until the next UTC day lands
	ttl := cache.TimeUntilNextUTCDay()
	priceRepo := di.NewPriceStore(db, rdb, ttl)

	// Usecase. The HTTP surface is read-only, so no alert dispatcher is
	// wired here; provider fetching and its alerts belong to the batch jobs.
	pricesUC, err := di.NewMarketData(cfg, priceRepo, nil)
	if err != nil {
		log.Fatal(err)
	}

	// Handler
	pricesH := priceshandler.NewPriceHandler(pricesUC)

	r := router.NewRouter(pricesH)

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}
