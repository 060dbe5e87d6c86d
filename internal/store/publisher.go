package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playmatatu/eightball/internal/models"
	"github.com/redis/go-redis/v9"
)

// GameEventsChannel is the pub/sub channel finished games are announced on.
const GameEventsChannel = "game_events"

const EventGameRecorded = "game_recorded"

// GameEvent is the payload published for a finished game.
type GameEvent struct {
	Type            string    `json:"type"`
	Origin          string    `json:"origin,omitempty"`
	RecordID        int64     `json:"record_id,omitempty"`
	WinnerID        *int64    `json:"winner_id,omitempty"`
	LoserID         *int64    `json:"loser_id,omitempty"`
	WinnerName      string    `json:"winner_name"`
	LoserName       string    `json:"loser_name"`
	WinnerScore     int       `json:"winner_score"`
	LoserScore      int       `json:"loser_score"`
	WinnerNewRating *int64    `json:"winner_new_rating,omitempty"`
	LoserNewRating  *int64    `json:"loser_new_rating,omitempty"`
	WinReason       int       `json:"win_reason"`
	FinishedAt      time.Time `json:"finished_at"`
}

// NewGameEvent builds the published form of a game record.
func NewGameEvent(rec *models.GameRecord) GameEvent {
	ev := GameEvent{
		Type:        EventGameRecorded,
		RecordID:    rec.ID,
		WinnerName:  rec.WinnerName,
		LoserName:   rec.LoserName,
		WinnerScore: rec.WinnerScore,
		LoserScore:  rec.LoserScore,
		WinReason:   rec.WinReason,
		FinishedAt:  rec.CreatedAt,
	}
	if rec.WinnerID.Valid {
		ev.WinnerID = &rec.WinnerID.Int64
	}
	if rec.LoserID.Valid {
		ev.LoserID = &rec.LoserID.Int64
	}
	if rec.WinnerNewRating.Valid {
		ev.WinnerNewRating = &rec.WinnerNewRating.Int64
	}
	if rec.LoserNewRating.Valid {
		ev.LoserNewRating = &rec.LoserNewRating.Int64
	}
	return ev
}

// RedisPublisher announces finished games on GameEventsChannel. Events are
// stamped with origin so the publishing instance can skip its own.
type RedisPublisher struct {
	rdb    *redis.Client
	origin string
}

func NewRedisPublisher(rdb *redis.Client, origin string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, origin: origin}
}

func (p *RedisPublisher) PublishGameResult(ctx context.Context, rec *models.GameRecord) error {
	ev := NewGameEvent(rec)
	ev.Origin = p.origin
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal game event: %w", err)
	}
	return p.rdb.Publish(ctx, GameEventsChannel, data).Err()
}

// RateLimiter allows one action per key per window using SetNX.
type RateLimiter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

func NewRateLimiter(rdb *redis.Client, prefix string, window time.Duration) *RateLimiter {
	return &RateLimiter{rdb: rdb, prefix: prefix, window: window}
}

// Allow reports whether key may act now. Redis errors fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.window <= 0 {
		return true, nil
	}
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, "1", l.window).Result()
	if err != nil {
		return true, err
	}
	return ok, nil
}
