package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/models"
	"github.com/playmatatu/eightball/internal/rating"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("account is deactivated")
)

const userColumns = `id, username, email, password_hash, country, rating, wins, losses, is_active, created_at`

// Users is the users table.
type Users struct {
	db *sqlx.DB
}

func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Create registers a user with the starting rating.
func (u *Users) Create(ctx context.Context, username, email, password, country string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user models.User
	err = u.db.GetContext(ctx, &user, `
		INSERT INTO users (username, email, password_hash, country, rating)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING `+userColumns,
		username, strings.ToLower(email), hash, country, rating.StartRating)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	logger.Log.Infof("[DB] Created user %s#%d", user.Username, user.ID)
	return &user, nil
}

// Authenticate finds a user by username or email and checks the password.
func (u *Users) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	err := u.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = LOWER($1)`, login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return &user, nil
}

func (u *Users) ByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := u.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

// UpdateRatingsAfterGame applies a rated result to both users in one
// transaction and counts the win and the loss.
func (u *Users) UpdateRatingsAfterGame(ctx context.Context, winnerID, loserID string) (*models.RatingChange, error) {
	wid, err := strconv.Atoi(winnerID)
	if err != nil {
		return nil, fmt.Errorf("winner id %q: %w", winnerID, err)
	}
	lid, err := strconv.Atoi(loserID)
	if err != nil {
		return nil, fmt.Errorf("loser id %q: %w", loserID, err)
	}

	tx, err := u.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var rows []struct {
		ID     int           `db:"id"`
		Rating sql.NullInt64 `db:"rating"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT id, rating FROM users WHERE id IN ($1, $2) ORDER BY id FOR UPDATE`, wid, lid); err != nil {
		return nil, fmt.Errorf("lock users: %w", err)
	}

	current := map[int]int{}
	for _, r := range rows {
		var stored *int
		if r.Rating.Valid {
			v := int(r.Rating.Int64)
			stored = &v
		}
		current[r.ID] = rating.OrStart(stored)
	}
	oldWinner, ok := current[wid]
	if !ok {
		return nil, fmt.Errorf("winner %d: %w", wid, ErrUserNotFound)
	}
	oldLoser, ok := current[lid]
	if !ok {
		return nil, fmt.Errorf("loser %d: %w", lid, ErrUserNotFound)
	}

	newWinner, newLoser := rating.Update(oldWinner, oldLoser)

	if _, err := tx.ExecContext(ctx, `UPDATE users SET rating = $1, wins = wins + 1 WHERE id = $2`, newWinner, wid); err != nil {
		return nil, fmt.Errorf("update winner: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET rating = $1, losses = losses + 1 WHERE id = $2`, newLoser, lid); err != nil {
		return nil, fmt.Errorf("update loser: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	change := &models.RatingChange{
		WinnerRating: newWinner,
		LoserRating:  newLoser,
		RatingGained: newWinner - oldWinner,
		RatingLost:   oldLoser - newLoser,
	}
	logger.Log.Infof("[DB] Ratings updated: user#%d %d->%d, user#%d %d->%d", wid, oldWinner, newWinner, lid, oldLoser, newLoser)
	return change, nil
}
