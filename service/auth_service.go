package service

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// uniqueViolation is the Postgres error code raised when the email unique
// constraint fires. The in-service duplicate pre-check can race, so this is
// the authoritative signal.
const uniqueViolation = "23505"

var (
	// ErrDuplicateCredential is returned when registration collides with an
	// existing active account. Handlers must surface it without revealing
	// which field collided.
	ErrDuplicateCredential = errors.New("credential already in use")
	// ErrInvalidCredentials covers both unknown-email and wrong-password so
	// login responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a token fails signature, expiration or
	// payload checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// revoked or expired.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// TokenPair is the credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService orchestrates registration, login and the refresh token
// lifecycle. It holds no state between requests; everything lives in the
// repositories.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
}

func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

func getAccessKey() []byte {
	return []byte(config.AppConfig.JWT.AccessSecret)
}

func getRefreshKey() []byte {
	return []byte(config.AppConfig.JWT.RefreshSecret)
}

func accessTokenTTL() time.Duration {
	return time.Duration(config.AppConfig.JWT.AccessExpiryMins) * time.Minute
}

func refreshTokenTTL() time.Duration {
	return time.Duration(config.AppConfig.JWT.RefreshExpiryHrs) * time.Hour
}

func (s *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		return "", err
	}
	return string(bytes), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateAccessToken signs a short-lived token carrying the user's id and
// email.
func (s *AuthService) GenerateAccessToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(accessTokenTTL())

	claims := &model.AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(getAccessKey())
	if err != nil {
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to sign access token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken signs a long-lived token carrying only the user id and
// a type marker, under a secret distinct from the access token secret.
func (s *AuthService) GenerateRefreshToken(userID int) (string, error) {
	expirationTime := time.Now().Add(refreshTokenTTL())

	claims := &model.RefreshClaims{
		UserID:    userID,
		TokenType: model.RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(getRefreshKey())
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to sign refresh token")
		return "", fmt.Errorf("failed to sign token string: %w", err)
	}

	return tokenString, nil
}

// VerifyAccessToken checks signature and expiration and validates the payload
// shape. Used by the per-request auth middleware.
func (s *AuthService) VerifyAccessToken(tokenString string) (*model.AccessClaims, error) {
	claims := &model.AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getAccessKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == 0 || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) verifyRefreshToken(tokenString string) (*model.RefreshClaims, error) {
	claims := &model.RefreshClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getRefreshKey(), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == 0 || claims.TokenType != model.RefreshTokenType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// hashToken produces the digest persisted for a refresh token. The raw signed
// token never touches the database.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates a new user account. Duplicate emails are reported as
// ErrDuplicateCredential whether caught by the pre-check or by the database
// unique constraint.
func (s *AuthService) Register(req model.RegisterRequest) error {
	_, err := s.userRepo.GetActiveUserByEmail(req.Email)
	if err == nil {
		return ErrDuplicateCredential
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Log.WithError(err).Error("Failed to check for existing user")
		return err
	}

	hashedPassword, err := s.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &model.User{
		Email:    req.Email,
		Password: hashedPassword,
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			// Two concurrent registrations passed the pre-check; the
			// constraint decided.
			return ErrDuplicateCredential
		}
		return err
	}

	logger.Log.WithField("user_id", user.ID).Info("User registered successfully")
	return nil
}

// Login authenticates a user and issues a token pair. The refresh token's
// hash is persisted so it can later be revoked without storing the bearer
// value.
func (s *AuthService) Login(req model.LoginRequest) (*TokenPair, error) {
	user, err := s.userRepo.GetActiveUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		logger.Log.WithError(err).Error("Failed to look up user for login")
		return nil, err
	}

	if !s.CheckPasswordHash(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokenPair(user)
}

func (s *AuthService) issueTokenPair(user *model.User) (*TokenPair, error) {
	accessToken, err := s.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	record := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: time.Now().Add(refreshTokenTTL()),
	}
	if err := s.tokenRepo.Create(record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair. The presented
// token is rotated: its row is revoked before the replacement is issued, so a
// replayed token fails the revocation check.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.tokenRepo.GetByTokenHash(hashToken(refreshToken))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if record.IsRevoked || record.UserID != claims.UserID || time.Now().After(record.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetActiveUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if err := s.tokenRepo.Revoke(record.ID); err != nil {
		return nil, err
	}

	return s.issueTokenPair(user)
}

// Logout revokes every refresh token the user holds.
func (s *AuthService) Logout(userID int) error {
	return s.tokenRepo.RevokeByUserID(userID)
}

// DeactivateUser soft-deletes the account and revokes all of its refresh
// tokens. The row is kept; the email stays claimed by the unique constraint.
func (s *AuthService) DeactivateUser(userID int) error {
	if err := s.userRepo.SoftDeleteUser(userID); err != nil {
		return err
	}
	return s.tokenRepo.RevokeByUserID(userID)
}
