// Package auth issues and verifies the bearer tokens handed out by
// POST /api/v1/token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"socialpulse/internal/config"
)

const (
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Username string
	ClientID uuid.UUID
	Role     string
}

// JWTManager signs and verifies HS256 tokens with a single shared secret.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg config.AuthConfig) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    cfg.JWTTTL,
	}
}

// Sign issues a token for username scoped to clientID.
func (m *JWTManager) Sign(username string, clientID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       username,
		"client_id": clientID.String(),
		"role":      role,
		"iss":       m.issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the signature, expiry, and issuer, and extracts the claims.
func (m *JWTManager) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: malformed claims", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	rawClientID, _ := claims["client_id"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || rawClientID == "" {
		return nil, fmt.Errorf("%w: missing sub or client_id claim", ErrInvalidToken)
	}

	clientID, err := uuid.Parse(rawClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad client_id claim", ErrInvalidToken)
	}

	return &Claims{Username: sub, ClientID: clientID, Role: role}, nil
}
