// server/internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/models"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	UserID     string      `json:"userId"`
	Role       models.Role `json:"role"`
	FacilityID string      `json:"facilityId,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(cfg config.JWTConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt.secret is required")
	}
	ttl := 24 * time.Hour
	if cfg.Expiration != "" {
		d, err := time.ParseDuration(cfg.Expiration)
		if err != nil {
			return nil, fmt.Errorf("jwt.expiration: %w", err)
		}
		ttl = d
	}
	return &Manager{secret: []byte(cfg.Secret), ttl: ttl}, nil
}

// GenerateJWT issues a token for the given identity.
func (m *Manager) GenerateJWT(userID string, role models.Role, facilityID string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID:     userID,
		Role:       role,
		FacilityID: facilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies tokenString and returns its claims.
func (m *Manager) Parse(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return claims, nil
}
