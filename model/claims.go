package model

import "github.com/golang-jwt/jwt/v5"

// RefreshTokenType is the type marker embedded in refresh token claims so an
// access token can never be replayed against the refresh endpoint.
const RefreshTokenType = "refresh"

// AccessClaims is the payload of a short-lived access token.
type AccessClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a long-lived refresh token.
type RefreshClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}
