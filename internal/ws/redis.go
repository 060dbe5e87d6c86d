package ws

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/store"
	"github.com/redis/go-redis/v9"
)

// RatingSink receives rating changes announced by any server instance.
type RatingSink interface {
	ApplyRatings(winnerID string, winnerRating int, loserID string, loserRating int)
}

// StartResultSubscriber listens on the game events channel and pushes the
// new ratings of recorded games to online players, so presence lists stay
// current when the game was played on another instance. Events published by
// origin are skipped; that instance already applied them locally.
func StartResultSubscriber(ctx context.Context, rdb *redis.Client, sink RatingSink, origin string) {
	if rdb == nil {
		logger.Log.Infof("[WS] Redis client not set; result subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, store.GameEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		logger.Log.Infof("[WS] %s subscriber started", store.GameEventsChannel)
		for {
			select {
			case <-ctx.Done():
				logger.Log.Infof("[WS] %s subscriber stopped", store.GameEventsChannel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handleGameEvent(msg.Payload, sink, origin)
			}
		}
	}()
}

func handleGameEvent(payload string, sink RatingSink, origin string) {
	var ev store.GameEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		logger.Log.Warnf("[WS] invalid game event payload: %v", err)
		return
	}
	if ev.Type != store.EventGameRecorded || (origin != "" && ev.Origin == origin) {
		return
	}
	if ev.WinnerID == nil || ev.LoserID == nil || ev.WinnerNewRating == nil || ev.LoserNewRating == nil {
		return
	}
	logger.Log.Debugf("[WS] game %d recorded: %s beat %s", ev.RecordID, ev.WinnerName, ev.LoserName)
	sink.ApplyRatings(
		strconv.FormatInt(*ev.WinnerID, 10), int(*ev.WinnerNewRating),
		strconv.FormatInt(*ev.LoserID, 10), int(*ev.LoserNewRating),
	)
}
