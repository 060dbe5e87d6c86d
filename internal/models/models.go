package models

import (
	"database/sql"
	"time"
)

// User represents a registered account
type User struct {
	ID           int            `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Country      sql.NullString `db:"country" json:"country,omitempty"`
	Rating       sql.NullInt64  `db:"rating" json:"rating,omitempty"`
	Wins         int            `db:"wins" json:"wins"`
	Losses       int            `db:"losses" json:"losses"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// GameRecord is a finished match as stored in the games table.
// Player ids are null for guests.
type GameRecord struct {
	ID              int64         `db:"id" json:"id"`
	WinnerID        sql.NullInt64 `db:"winner_id" json:"winner_id,omitempty"`
	LoserID         sql.NullInt64 `db:"loser_id" json:"loser_id,omitempty"`
	WinnerName      string        `db:"winner_name" json:"winner_name"`
	LoserName       string        `db:"loser_name" json:"loser_name"`
	WinnerScore     int           `db:"winner_score" json:"winner_score"`
	LoserScore      int           `db:"loser_score" json:"loser_score"`
	WinnerNewRating sql.NullInt64 `db:"winner_new_rating" json:"winner_new_rating,omitempty"`
	LoserNewRating  sql.NullInt64 `db:"loser_new_rating" json:"loser_new_rating,omitempty"`
	RatingGained    sql.NullInt64 `db:"rating_gained" json:"rating_gained,omitempty"`
	RatingLost      sql.NullInt64 `db:"rating_lost" json:"rating_lost,omitempty"`
	WinReason       int           `db:"win_reason" json:"win_reason"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// RatingChange is the outcome of a rated game for both players.
type RatingChange struct {
	WinnerRating int `json:"winnerRating"`
	LoserRating  int `json:"loserRating"`
	RatingGained int `json:"ratingGained"`
	RatingLost   int `json:"ratingLost"`
}
