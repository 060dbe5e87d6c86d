package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/eightball/internal/models"
)

// DefaultHistoryLimit caps how many games a history query returns.
const DefaultHistoryLimit = 25

// Games is the games table.
type Games struct {
	db *sqlx.DB
}

func NewGames(db *sqlx.DB) *Games {
	return &Games{db: db}
}

// CreateGame inserts a finished game and returns its id.
func (g *Games) CreateGame(ctx context.Context, rec *models.GameRecord) (int64, error) {
	query, args, err := g.db.BindNamed(`
		INSERT INTO games (winner_id, loser_id, winner_name, loser_name, winner_score, loser_score,
			winner_new_rating, loser_new_rating, rating_gained, rating_lost, win_reason, created_at)
		VALUES (:winner_id, :loser_id, :winner_name, :loser_name, :winner_score, :loser_score,
			:winner_new_rating, :loser_new_rating, :rating_gained, :rating_lost, :win_reason, :created_at)
		RETURNING id`, rec)
	if err != nil {
		return 0, fmt.Errorf("bind game insert: %w", err)
	}

	var id int64
	if err := g.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id, nil
}

// GamesByUser returns the user's most recent games, newest first.
func (g *Games) GamesByUser(ctx context.Context, userID, limit int) ([]models.GameRecord, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	games := []models.GameRecord{}
	err := g.db.SelectContext(ctx, &games, `
		SELECT id, winner_id, loser_id, winner_name, loser_name, winner_score, loser_score,
			winner_new_rating, loser_new_rating, rating_gained, rating_lost, win_reason, created_at
		FROM games
		WHERE winner_id = $1 OR loser_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select games for user %d: %w", userID, err)
	}
	return games, nil
}
