package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/config"
	"github.com/ourfood/climate-diet/internal/database"
	"github.com/ourfood/climate-diet/internal/models"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/server"
	"github.com/ourfood/climate-diet/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load()
	if err != nil {
		slog.Error("loading dish catalog", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)

	var store services.UserStore
	switch cfg.AuthMode {
	case models.AuthModeOIDC:
		store, err = services.NewOIDCUserStore(context.Background(), cfg, userRepo)
		if err != nil {
			slog.Error("creating oidc user store", "error", err)
			os.Exit(1)
		}
	default:
		store = services.NewLocalUserStore(userRepo, cfg.JWTSecret)
	}
	authService := services.NewAuthService(store, cfg.SessionSecret, userRepo)

	srv := server.New(db, cfg, cat, authService)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}
