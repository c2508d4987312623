package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// PricingService computes item and cart totals. Implementations are pure.
type PricingService interface {
	CalculateItemTotal(item domain.CartItem) decimal.Decimal
	CalculateTotal(cart domain.Cart) decimal.Decimal
}

// CheckoutService turns a user's cart into a receipt.
type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (*domain.Receipt, error)
}

// CheckoutLocker provides a mutual-exclusion scope per user so that one cart
// is never checked out twice concurrently. Acquire returns
// domain.ErrCheckoutInProgress when another checkout holds the scope.
type CheckoutLocker interface {
	Acquire(ctx context.Context, userID string) (release func(context.Context) error, err error)
}

// CartCleaner retries the removal of a cart whose receipt is already committed.
type CartCleaner interface {
	ScheduleCartCleanup(version domain.CartVersion)
}
