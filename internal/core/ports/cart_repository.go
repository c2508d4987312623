package ports

import (
	"context"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// CartRepository defines persistence operations for carts, keyed by owner.
type CartRepository interface {
	// GetByUserID returns domain.ErrCartNotFound when the user has no cart.
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	// DeleteByUserID reports whether a cart was removed.
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
	// DeleteVersion removes the cart only while it is still in the given
	// state, and reports whether it did.
	DeleteVersion(ctx context.Context, version domain.CartVersion) (bool, error)
	// Save replaces the user's cart, creating it when absent.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
}
