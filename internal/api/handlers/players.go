package handlers

import (
	"context"
	"database/sql/driver"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/game"
	"github.com/playmatatu/eightball/internal/models"
	"github.com/playmatatu/eightball/internal/store"
)

// PresenceSource gives a snapshot of who is online.
type PresenceSource interface {
	Snapshot() game.Presence
}

// GameHistory reads recorded games.
type GameHistory interface {
	GamesByUser(ctx context.Context, userID, limit int) ([]models.GameRecord, error)
}

// ProfileStore reads user profiles.
type ProfileStore interface {
	ByID(ctx context.Context, id int) (*models.User, error)
}

// GetOnline returns the players online and waiting in the queue.
func GetOnline(presence PresenceSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, presence.Snapshot())
	}
}

func nullable(v driver.Valuer) interface{} {
	val, _ := v.Value()
	return val
}

// GetPlayerProfile returns a user's public profile and record.
func GetPlayerProfile(users ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUserID(c)
		if !ok {
			return
		}
		user, err := users.ByID(c.Request.Context(), id)
		if errors.Is(err, store.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			internalError(c, "[DB]", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"country":    nullable(user.Country),
			"rating":     nullable(user.Rating),
			"wins":       user.Wins,
			"losses":     user.Losses,
			"created_at": user.CreatedAt,
		})
	}
}

// GetPlayerGames returns a user's most recent games.
func GetPlayerGames(games GameHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathUserID(c)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultHistoryLimit)))

		records, err := games.GamesByUser(c.Request.Context(), id, limit)
		if err != nil {
			internalError(c, "[DB]", err)
			return
		}

		out := make([]gin.H, 0, len(records))
		for _, r := range records {
			won := r.WinnerID.Valid && int(r.WinnerID.Int64) == id
			row := gin.H{
				"id":           r.ID,
				"won":          won,
				"winner":       r.WinnerName,
				"loser":        r.LoserName,
				"winner_score": r.WinnerScore,
				"loser_score":  r.LoserScore,
				"win_reason":   r.WinReason,
				"created_at":   r.CreatedAt,
			}
			if won && r.RatingGained.Valid {
				row["rating_change"] = r.RatingGained.Int64
			} else if !won && r.RatingLost.Valid {
				row["rating_change"] = -r.RatingLost.Int64
			}
			out = append(out, row)
		}
		c.JSON(http.StatusOK, gin.H{"games": out})
	}
}
