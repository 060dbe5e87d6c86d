package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/playmatatu/eightball/internal/models"
)

func TestGameEventOmitsGuestIDs(t *testing.T) {
	rec := &models.GameRecord{
		ID:          7,
		WinnerID:    sql.NullInt64{Int64: 3, Valid: true},
		WinnerName:  "alice",
		LoserName:   "Guest4821",
		WinnerScore: 8,
		LoserScore:  4,
		WinReason:   1,
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}

	data, err := json.Marshal(NewGameEvent(rec))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["type"] != EventGameRecorded {
		t.Errorf("type = %v, want %s", decoded["type"], EventGameRecorded)
	}
	if decoded["winner_id"] != float64(3) {
		t.Errorf("winner_id = %v, want 3", decoded["winner_id"])
	}
	if _, ok := decoded["loser_id"]; ok {
		t.Errorf("loser_id should be omitted for a guest, got %v", decoded["loser_id"])
	}
	if _, ok := decoded["winner_new_rating"]; ok {
		t.Errorf("unrated game should not carry ratings")
	}
}

func TestNilRateLimiterAllows(t *testing.T) {
	var l *RateLimiter
	ok, err := l.Allow(context.Background(), "1.2.3.4")
	if !ok || err != nil {
		t.Errorf("nil limiter should allow, got ok=%v err=%v", ok, err)
	}
}

func TestHashPasswordVerifies(t *testing.T) {
	hash, err := HashPassword("cue-ball")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "cue-ball" || len(hash) < 50 {
		t.Errorf("unexpected hash %q", hash)
	}
}
