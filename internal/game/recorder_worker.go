package game

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/models"
)

// MatchResult is a finished game handed off for rating and recording.
type MatchResult struct {
	GameID      int64
	WinnerID    string
	LoserID     string
	WinnerName  string
	LoserName   string
	WinnerScore int
	LoserScore  int
	WinReason   WinReason
	Rated       bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RatingUpdater applies a rated result to both players' ratings.
type RatingUpdater interface {
	UpdateRatingsAfterGame(ctx context.Context, winnerID, loserID string) (*models.RatingChange, error)
}

// GameRecorder persists a finished game and returns its record id.
type GameRecorder interface {
	CreateGame(ctx context.Context, rec *models.GameRecord) (int64, error)
}

// ResultPublisher announces a recorded game to other services.
type ResultPublisher interface {
	PublishGameResult(ctx context.Context, rec *models.GameRecord) error
}

// RatedFunc is told the new ratings after a rated game.
type RatedFunc func(winnerID string, winnerRating int, loserID string, loserRating int)

// Recorder takes finished games off the tick loop and runs the slow
// rating, persistence and publish steps in its own goroutine.
type Recorder struct {
	ratings   RatingUpdater
	games     GameRecorder
	publisher ResultPublisher
	results   chan MatchResult
	onRated   RatedFunc
	timeout   time.Duration
}

// NewRecorder creates a recorder. Any collaborator may be nil, in which case
// that step is skipped.
func NewRecorder(ratings RatingUpdater, games GameRecorder, publisher ResultPublisher, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	return &Recorder{
		ratings:   ratings,
		games:     games,
		publisher: publisher,
		results:   make(chan MatchResult, buffer),
		timeout:   10 * time.Second,
	}
}

// OnRated registers the callback that receives new ratings.
func (r *Recorder) OnRated(fn RatedFunc) {
	r.onRated = fn
}

// Submit queues a result without blocking. A full buffer drops the result.
func (r *Recorder) Submit(res MatchResult) {
	select {
	case r.results <- res:
	default:
		logger.Log.Errorf("[RECORDER] buffer full, dropping result of game#%d (%s beat %s)", res.GameID, res.WinnerName, res.LoserName)
	}
}

// Run processes results until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	logger.Log.Infof("[RECORDER] Result recorder started (buffer %d)", cap(r.results))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Infof("[RECORDER] Result recorder stopped, %d result(s) unprocessed", len(r.results))
			return
		case res := <-r.results:
			r.process(ctx, res)
		}
	}
}

// process rates, records and publishes one result. A failing step is logged
// and the remaining steps still run.
func (r *Recorder) process(ctx context.Context, res MatchResult) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var change *models.RatingChange
	if res.Rated && r.ratings != nil {
		var err error
		change, err = r.ratings.UpdateRatingsAfterGame(ctx, res.WinnerID, res.LoserID)
		if err != nil {
			logger.Log.Errorf("[RECORDER] Failed to update ratings for game#%d: %v", res.GameID, err)
		} else if change != nil && r.onRated != nil {
			r.onRated(res.WinnerID, change.WinnerRating, res.LoserID, change.LoserRating)
		}
	}

	rec := buildGameRecord(res, change)
	if r.games != nil {
		id, err := r.games.CreateGame(ctx, rec)
		if err != nil {
			logger.Log.Errorf("[RECORDER] Failed to record game#%d: %v", res.GameID, err)
		} else {
			rec.ID = id
			logger.Log.Infof("[RECORDER] game#%d recorded as %d", res.GameID, id)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishGameResult(ctx, rec); err != nil {
			logger.Log.Warnf("[RECORDER] Failed to publish game#%d: %v", res.GameID, err)
		}
	}
}

func buildGameRecord(res MatchResult, change *models.RatingChange) *models.GameRecord {
	rec := &models.GameRecord{
		WinnerID:    userID(res.WinnerID),
		LoserID:     userID(res.LoserID),
		WinnerName:  res.WinnerName,
		LoserName:   res.LoserName,
		WinnerScore: res.WinnerScore,
		LoserScore:  res.LoserScore,
		WinReason:   int(res.WinReason),
		CreatedAt:   res.FinishedAt,
	}
	if change != nil {
		rec.WinnerNewRating = sql.NullInt64{Int64: int64(change.WinnerRating), Valid: true}
		rec.LoserNewRating = sql.NullInt64{Int64: int64(change.LoserRating), Valid: true}
		rec.RatingGained = sql.NullInt64{Int64: int64(change.RatingGained), Valid: true}
		rec.RatingLost = sql.NullInt64{Int64: int64(change.RatingLost), Valid: true}
	}
	return rec
}

// userID maps a player id to a users.id; guest ids map to null.
func userID(id string) sql.NullInt64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
