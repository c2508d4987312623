package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// AuthService implements registration, login and session verification.
type AuthService struct {
	users      ports.UserRepository
	tokens     ports.TokenService
	bcryptCost int
	logger     zerolog.Logger
}

func NewAuthService(users ports.UserRepository, tokens ports.TokenService, bcryptCost int, logger zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = 10
	}
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger}
}

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

func (s *AuthService) GeneratePasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) Register(ctx context.Context, username, password string, isPrivileged bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if len(password) > maxPasswordBytes {
		return nil, domain.ErrPasswordTooLong
	}

	hash, err := s.GeneratePasswordHash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.users.Save(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		IsPrivileged: isPrivileged,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Bool("privileged", isPrivileged).Msg("user registered")
	return created.Sanitized(), nil
}

// AuthenticateUser checks the password against the stored hash. The returned
// user never carries the hash.
func (s *AuthService) AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Sanitized(), nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	user, err := s.AuthenticateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}

	payload := domain.SessionPayload{
		UserID:       user.ID,
		SessionID:    uuid.NewString(),
		IsPrivileged: user.IsPrivileged,
	}
	result, err := s.issue(payload, user, nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("session_id", payload.SessionID).Msg("login")
	return result, nil
}

// Refresh exchanges a refresh token for a new pair in the same session. The
// rotated refresh token expires when the presented one would have.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.LoginResult, error) {
	verified, ok := s.tokens.VerifyRefreshToken(refreshToken)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, verified.UserID)
	if err != nil {
		return nil, err
	}

	payload := domain.SessionPayload{
		UserID:       user.ID,
		SessionID:    verified.SessionID,
		IsPrivileged: user.IsPrivileged,
	}
	expiresAt := verified.ExpiresAt
	return s.issue(payload, user.Sanitized(), &expiresAt)
}

func (s *AuthService) CheckAccess(_ context.Context, accessToken string) (*domain.SessionPayload, error) {
	verified, ok := s.tokens.VerifyAccessToken(accessToken)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	payload := verified.SessionPayload
	return &payload, nil
}

func (s *AuthService) issue(payload domain.SessionPayload, user *domain.User, refreshExpiresAt *time.Time) (*ports.LoginResult, error) {
	access, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(payload, refreshExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &ports.LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
