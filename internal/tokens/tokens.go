// Package tokens issues and verifies the signed session tokens that tie a
// websocket connection to a room member.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is how long an issued token stays valid.
const TTL = 24 * time.Hour

// Identity is the verified content of a session token.
type Identity struct {
	ID     string
	IsHost bool
}

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// Service signs and verifies session tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

// New creates a token service. The secret must not be empty.
func New(secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("tokens: empty secret")
	}
	return &Service{secret: []byte(secret)}, nil
}

type claims struct {
	ID     string `json:"id"`
	IsHost bool   `json:"isHost"`
	jwt.RegisteredClaims
}

// Issue signs a token carrying the user id and host flag.
func (s *Service) Issue(id string, isHost bool) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		ID:     id,
		IsHost: isHost,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it carries.
func (s *Service) Verify(token string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || c.ID == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: c.ID, IsHost: c.IsHost}, nil
}
