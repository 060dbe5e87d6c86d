package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/playmatatu/eightball/internal/api"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/database"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/migrations"
	"github.com/playmatatu/eightball/internal/redis"
	"github.com/playmatatu/eightball/internal/store"
	"github.com/playmatatu/eightball/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogFile, cfg.LogLevel, !cfg.IsProduction()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		logger.Log.Info("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
			logger.Log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	instanceID := uuid.NewString()
	logger.Log.Infof("[SERVER] instance %s", instanceID)

	users := store.NewUsers(db)
	games := store.NewGames(db)

	recorder := game.NewRecorder(users, games, store.NewRedisPublisher(rdb, instanceID), cfg.RecorderBuffer)
	srv := game.NewServer(cfg.TickRate, recorder, nil)
	recorder.OnRated(srv.ApplyRatings)
	hub := ws.NewHub(srv)

	go recorder.Run(ctx)
	go srv.Run(ctx)
	go hub.Run(ctx)

	// Ratings recorded by other instances
	ws.StartResultSubscriber(ctx, rdb, srv, instanceID)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, api.Deps{
		Config:   cfg,
		Users:    users,
		Games:    games,
		Limiter:  store.NewRateLimiter(rdb, "guest_login:", time.Duration(cfg.GuestRateLimitSeconds)*time.Second),
		Hub:      hub,
		Presence: srv,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	httpServer := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		logger.Log.Infof("Starting eightball server on port %s (tick rate %d)", port, cfg.TickRate)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("HTTP shutdown: %v", err)
	}
}
