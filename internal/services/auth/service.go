// Package auth implements credential handling: password hashing, access
// token issuance, and refresh-token rotation with reuse detection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrUnauthorized covers every credential failure: wrong password,
	// unknown email, expired or malformed tokens. Callers must not be able
	// to distinguish these cases.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenReuse marks the presentation of a refresh token that matches
	// no stored row — treated as evidence of theft so clients can force a
	// re-login.
	ErrTokenReuse = errors.New("refresh token reused or revoked")
	// ErrConflict marks a duplicate email or username at signup.
	ErrConflict = errors.New("email or username already registered")
)

// TokenPair is the result of login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service implements signup, login, token refresh, and logout.
type Service struct {
	users  interfaces.UserStore
	tokens interfaces.TokenStore
	config *common.AuthConfig
	logger *common.Logger
}

// NewService creates a new auth service.
func NewService(users interfaces.UserStore, tokens interfaces.TokenStore, config *common.AuthConfig, logger *common.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		config: config,
		logger: logger,
	}
}

// HashPassword derives a salted bcrypt verifier. Input is truncated to
// bcrypt's 72-byte limit.
func HashPassword(password string) (string, error) {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored verifier.
func VerifyPassword(password, hash string) bool {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes) == nil
}

// Signup registers a new user. Email and username are matched
// case-sensitively; either colliding yields ErrConflict.
func (s *Service) Signup(ctx context.Context, email, username, password string) (*models.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrConflict
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login verifies credentials and mints a token pair. Unknown email and
// wrong password are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrUnauthorized
	}
	return s.mintPair(ctx, user.ID)
}

// Refresh rotates a refresh token: the presented token is deleted and a new
// (access, refresh) pair is minted. An unknown token yields ErrTokenReuse;
// an expired one is deleted and yields ErrUnauthorized.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, ErrTokenReuse
	}

	if time.Now().After(stored.ExpiresAt) {
		if err := s.tokens.Delete(ctx, refreshToken); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to delete expired refresh token")
		}
		return nil, ErrUnauthorized
	}

	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return s.mintPair(ctx, stored.UserID)
}

// Logout deletes the presented refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Delete(ctx, refreshToken)
}

// GetUser loads the account behind a verified user id.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// mintPair issues a fresh access token and persists a fresh refresh token.
func (s *Service) mintPair(ctx context.Context, userID int64) (*TokenPair, error) {
	access, err := s.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refresh := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.config.GetRefreshTokenExpiry()),
	}
	if err := s.tokens.Save(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
	}, nil
}

// IssueAccessToken signs a short-lived HS256 bearer carrying the user id.
func (s *Service) IssueAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iss": "forge-server",
		"iat": now.Unix(),
		"exp": now.Add(s.config.GetAccessTokenExpiry()).Unix(),
	}
	method := jwt.GetSigningMethod(s.config.JWTAlgorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a bearer token and returns the user id. Every
// failure mode (bad signature, missing or non-integer subject, expiry)
// collapses to ErrUnauthorized.
func (s *Service) ParseAccessToken(tokenString string) (int64, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return 0, ErrUnauthorized
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return userID, nil
}
