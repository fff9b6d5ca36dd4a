package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/inv-nithin007/School-manager/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var cfg *config.JWTConfig

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair bundles the access and refresh tokens issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Initialize sets the JWT configuration for the package
func Initialize(jwtConfig *config.JWTConfig) {
	cfg = jwtConfig
}

// GenerateTokenPair creates an access/refresh token pair for a user
func GenerateTokenPair(username, email string, userID uint, role string) (*TokenPair, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	access, err := generateToken(username, email, userID, role, TokenTypeAccess,
		time.Duration(cfg.ExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	refresh, err := generateToken(username, email, userID, role, TokenTypeRefresh,
		time.Duration(cfg.RefreshExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func generateToken(username, email string, userID uint, role, tokenType string, ttl time.Duration) (string, error) {
	claims := UserClaims{
		Username:  username,
		Email:     email,
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
	)

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// ValidateAccessToken validates a token and rejects refresh tokens used as access tokens
func ValidateAccessToken(tokenString string) (*UserClaims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType == TokenTypeRefresh {
		return nil, errors.New("refresh token cannot be used for authentication")
	}
	return claims, nil
}
