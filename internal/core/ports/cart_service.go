package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// CartItemInput is a single line of a cart replacement request.
type CartItemInput struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// PricedCartItem is a cart line with its computed total.
type PricedCartItem struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// PricedCart is a cart preview: what checkout would charge right now.
type PricedCart struct {
	UserID   string
	Items    []PricedCartItem
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (*PricedCart, error)
	ReplaceCart(ctx context.Context, userID string, items []CartItemInput) (*PricedCart, error)
}
