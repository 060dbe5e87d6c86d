package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/database"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/store"
)

// demo accounts spread over the rating brackets
var seeds = []struct {
	username string
	country  string
	rating   int
}{
	{"rookie", "UG", 150},
	{"breaker", "KE", 300},
	{"banker", "TZ", 450},
	{"hustler", "RW", 650},
	{"shark", "UG", 850},
}

func main() {
	cfg := config.Load()
	if err := logger.Init("", cfg.LogLevel, true); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "password123"
		logger.Log.Warn("Using default seed password. Set SEED_PASSWORD to override")
	}

	users := store.NewUsers(db)
	for _, s := range seeds {
		u, err := users.Create(ctx, s.username, s.username+"@example.com", password, s.country)
		if errors.Is(err, store.ErrUserExists) {
			logger.Log.Infof("%s already exists, skipping", s.username)
			continue
		}
		if err != nil {
			logger.Log.Fatalf("Failed to create %s: %v", s.username, err)
		}
		if _, err := db.ExecContext(ctx, `UPDATE users SET rating = $1 WHERE id = $2`, s.rating, u.ID); err != nil {
			logger.Log.Fatalf("Failed to set rating for %s: %v", s.username, err)
		}
		logger.Log.Infof("✓ %s#%d created (rating %d)", s.username, u.ID, s.rating)
	}
}
