package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ejohntemperatura/Thesis-sub000/internal/config"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Error loading config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(context.Background(), cfg.DatabaseURL(), cfg.PoolOptions())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	applied, err := db.Migrate(context.Background())
	if err != nil {
		slog.Error("Migration failed", "error", err)
		db.Close()
		os.Exit(1)
	}
	slog.Info("Migrations complete", "applied", applied)
}
