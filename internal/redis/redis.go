package redis

import (
	"context"
	"fmt"

	"github.com/playmatatu/eightball/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Connect parses redisURL and checks the server answers within ctx.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Log.Infof("[REDIS] Connected to %s db %d", opt.Addr, opt.DB)
	return client, nil
}
