package auth

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const guestPrefix = "guest_"

var ErrInvalidToken = errors.New("invalid token")

// Session is the identity carried by a session token.
type Session struct {
	PlayerID string
	Username string
	Country  string
	Guest    bool
}

// NewGuestSession allocates a fresh guest identity.
func NewGuestSession() Session {
	id := uuid.New()
	n := binary.BigEndian.Uint16(id[:2]) % 10000
	return Session{
		PlayerID: guestPrefix + id.String(),
		Username: fmt.Sprintf("Guest%04d", n),
		Guest:    true,
	}
}

// IsGuestID reports whether a player id was allocated to a guest.
func IsGuestID(id string) bool {
	return strings.HasPrefix(id, guestPrefix)
}

// IssueToken signs an HS256 token for s valid for ttl.
func IssueToken(secret string, s Session, ttl time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"player_id": s.PlayerID,
		"username":  s.Username,
		"country":   s.Country,
		"guest":     s.Guest,
		"exp":       exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken validates a token issued by IssueToken.
func ParseToken(secret, token string) (Session, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrInvalidToken
	}

	playerID, _ := claims["player_id"].(string)
	username, _ := claims["username"].(string)
	if playerID == "" || username == "" {
		return Session{}, ErrInvalidToken
	}
	country, _ := claims["country"].(string)
	guest, _ := claims["guest"].(bool)
	if guest != IsGuestID(playerID) {
		return Session{}, ErrInvalidToken
	}
	return Session{PlayerID: playerID, Username: username, Country: country, Guest: guest}, nil
}
