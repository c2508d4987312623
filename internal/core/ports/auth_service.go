package ports

import (
	"context"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// LoginResult is returned by Login and Refresh. User never carries a password hash.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type AuthService interface {
	GeneratePasswordHash(password string) (string, error)
	Register(ctx context.Context, username, password string, isPrivileged bool) (*domain.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	CheckAccess(ctx context.Context, accessToken string) (*domain.SessionPayload, error)
}
