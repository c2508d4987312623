package ports

import (
	"context"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Lookups that match nothing return domain.ErrUserNotFound.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// Save inserts the user when ID is empty and updates it otherwise.
	// A username collision returns domain.ErrUserExists.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}
