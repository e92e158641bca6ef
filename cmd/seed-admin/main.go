package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/casafunko/api/internal/auth"
	"github.com/casafunko/api/internal/config"
	"github.com/casafunko/api/internal/database"
	"github.com/casafunko/api/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.LoadDev()

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	email := "admin@casafunko.local"
	password := "admin123"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}
	if len(os.Args) > 2 {
		password = os.Args[2]
	}

	admins := store.NewAdmins(pool)

	_, err = admins.GetByEmail(context.Background(), email)
	if err == nil {
		fmt.Printf("Admin user %s already exists\n", email)
		os.Exit(0)
	}
	if !errors.Is(err, store.ErrAdminNotFound) {
		slog.Error("failed to check admin user", "error", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		os.Exit(1)
	}

	u, err := admins.Create(context.Background(), email, hash)
	if err != nil {
		slog.Error("failed to create admin user", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Admin user created:\n  ID:    %s\n  Email: %s\n\nLog in with POST /admin/api/login\n", u.ID, u.Email)
}
