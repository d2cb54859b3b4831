package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"

	"github.com/mesahq/mesa/internal/config"
	"github.com/mesahq/mesa/internal/entity"
)

// ErrInvalid is returned for malformed, mis-signed, or expired tokens.
var ErrInvalid = errors.New("invalid token")

// Identity is the caller identity carried inside a bearer token.
type Identity struct {
	UserID     string
	Role       entity.Role
	LocationID string
}

// Claims is the JWT payload for issued tokens.
type Claims struct {
	Role       string `json:"role"`
	LocationID string `json:"location_id,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and verifies bearer tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// Module provides the token service to Fx.
var Module = fx.Provide(NewService)

// NewService builds a Service from configuration.
func NewService(cfg config.Config) *Service {
	return &Service{
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    cfg.Auth.TokenTTL,
	}
}

// Issue signs a new token for the identity.
func (s *Service) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:       string(id.Role),
		LocationID: id.LocationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a token, returning the embedded identity.
func (s *Service) Verify(tokenString string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return Identity{}, ErrInvalid
	}
	return Identity{
		UserID:     claims.Subject,
		Role:       entity.Role(claims.Role),
		LocationID: claims.LocationID,
	}, nil
}
