package services

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"vidhub/internal/config"
)

// TokenService issues and verifies the two token kinds. Access and refresh
// tokens are signed with distinct secrets and lifetimes so leaking one does
// not extend the other's validity window.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService from the process configuration.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}
}

// IssueAccessToken produces a short-lived signed token for the user.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return sign(s.accessSecret, s.accessTTL, userID)
}

// IssueRefreshToken produces a long-lived signed token for the user.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return sign(s.refreshSecret, s.refreshTTL, userID)
}

// VerifyAccessToken validates signature and expiry and returns the user id.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	return verify(s.accessSecret, tokenString)
}

// VerifyRefreshToken validates signature and expiry and returns the user id.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	return verify(s.refreshSecret, tokenString)
}

func sign(secret []byte, ttl time.Duration, userID string) (string, error) {
	now := time.Now()
	// jti keeps two tokens for the same subject distinct even when issued
	// within the same second; rotation compares raw token strings.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.New().String(),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func verify(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return userID, nil
}
