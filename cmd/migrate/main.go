package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"

	"chatbot-studio/internal/config"
	"chatbot-studio/internal/database"
	"chatbot-studio/internal/logger"
)

func main() {
	fromSqlite := flag.String("from-sqlite", "", "copy every row from this sqlite file after migrating")
	flag.Parse()

	logger.Init("info", false)
	cfg, err := config.LoadDatabase()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	if *fromSqlite != "" {
		src, err := database.Open("sqlite", *fromSqlite)
		if err != nil {
			logrus.Fatalf("Failed to connect to SQLite: %v", err)
		}
		logrus.Infof("Connected to SQLite at %s", *fromSqlite)
		if err := database.CopyAll(ctx, src, db); err != nil {
			logrus.Fatalf("Data migration failed: %v", err)
		}
	}

	// ids copied or inserted by hand leave postgres sequences behind
	if err := database.SyncSequences(ctx, db); err != nil {
		logrus.Fatalf("Failed to sync sequences: %v", err)
	}
	logrus.Info("DONE!")
}
