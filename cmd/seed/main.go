package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/oggyb/mawaddah/internal/config"
	"github.com/oggyb/mawaddah/internal/db"
	"github.com/oggyb/mawaddah/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	logger.Info("seeding completed")
}
