package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/eightball/internal/auth"
	"github.com/playmatatu/eightball/internal/config"
	"github.com/playmatatu/eightball/internal/logger"
	"github.com/playmatatu/eightball/internal/models"
	"github.com/playmatatu/eightball/internal/store"
)

// UserStore is the account storage the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, username, email, password, country string) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
}

// Limiter throttles an action per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type playerJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Country  string `json:"country,omitempty"`
	Rating   *int   `json:"rating"`
	Guest    bool   `json:"guest"`
}

func userSession(u *models.User) (auth.Session, *int) {
	s := auth.Session{PlayerID: strconv.Itoa(u.ID), Username: u.Username}
	if u.Country.Valid {
		s.Country = u.Country.String
	}
	var rating *int
	if u.Rating.Valid {
		r := int(u.Rating.Int64)
		rating = &r
	}
	return s, rating
}

func issue(c *gin.Context, cfg *config.Config, s auth.Session, rating *int, status int) {
	token, exp, err := auth.IssueToken(cfg.JWTSecret, s, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		internalError(c, "[AUTH]", err)
		return
	}
	c.JSON(status, gin.H{
		"token":      token,
		"expires_at": exp.Format(time.RFC3339),
		"player": playerJSON{
			ID:       s.PlayerID,
			Username: s.Username,
			Country:  s.Country,
			Rating:   rating,
			Guest:    s.Guest,
		},
	})
}

// GuestLogin issues a guest session token, limited per client IP.
func GuestLogin(limiter Limiter, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil {
			ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
			if err != nil {
				logger.Log.Warnf("[AUTH] Guest rate limit check failed: %v", err)
			} else if !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "guest rate limit exceeded"})
				return
			}
		}

		s := auth.NewGuestSession()
		logger.Log.Infof("[AUTH] Guest session %s issued to %s", s.Username, c.ClientIP())
		issue(c, cfg, s, nil, http.StatusOK)
	}
}

// Register creates an account and signs the new user in.
func Register(users UserStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required,min=3,max=20,alphanum"`
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required,min=6,max=72"`
			Country  string `json:"country" binding:"max=64"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username (3-20 letters or digits), email and password (6+ characters) required"})
			return
		}

		user, err := users.Create(c.Request.Context(), req.Username, req.Email, req.Password, strings.TrimSpace(req.Country))
		if errors.Is(err, store.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			internalError(c, "[AUTH]", err)
			return
		}

		s, rating := userSession(user)
		issue(c, cfg, s, rating, http.StatusCreated)
	}
}

// Login checks a username or email and password.
func Login(users UserStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Login    string `json:"login" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "login and password required"})
			return
		}

		user, err := users.Authenticate(c.Request.Context(), strings.TrimSpace(req.Login), req.Password)
		switch {
		case errors.Is(err, store.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		case errors.Is(err, store.ErrUserInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case err != nil:
			internalError(c, "[AUTH]", err)
			return
		}

		s, rating := userSession(user)
		logger.Log.Infof("[AUTH] %s#%s signed in", s.Username, s.PlayerID)
		issue(c, cfg, s, rating, http.StatusOK)
	}
}
