package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	tokenIssuer = "table-order"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies access and refresh tokens with separate secrets.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string) *JWTManager {
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

func (m *JWTManager) GenerateAccessToken(userID uint, role string, ttl time.Duration) (string, error) {
	return m.sign(m.accessSecret, userID, role, TokenTypeAccess, m.now().Add(ttl))
}

// GenerateRefreshToken uses an absolute expiry so a rotated token can keep the
// expiry of the one it replaces.
func (m *JWTManager) GenerateRefreshToken(userID uint, role string, expiresAt time.Time) (string, error) {
	return m.sign(m.refreshSecret, userID, role, TokenTypeRefresh, expiresAt)
}

func (m *JWTManager) ParseAccessToken(tokenString string) (*CustomClaims, error) {
	return m.parse(m.accessSecret, tokenString, TokenTypeAccess)
}

func (m *JWTManager) ParseRefreshToken(tokenString string) (*CustomClaims, error) {
	return m.parse(m.refreshSecret, tokenString, TokenTypeRefresh)
}

func (m *JWTManager) sign(secret []byte, userID uint, role, tokenType string, expiresAt time.Time) (string, error) {
	claims := &CustomClaims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(m.now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return tokenString, nil
}

func (m *JWTManager) parse(secret []byte, tokenString, tokenType string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || claims.TokenType != tokenType || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
