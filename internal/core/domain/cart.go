package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog snapshot a cart item is priced from.
type Product struct {
	ID    string          `json:"id"`
	Price decimal.Decimal `json:"price"`
}

// CartItem is a product reference plus a positive quantity.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart belongs to exactly one user and is consumed by checkout.
type Cart struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartVersion identifies one saved state of a user's cart. Cart IDs survive
// replacement, so UpdatedAt is what tells two saves apart.
type CartVersion struct {
	UserID    string
	CartID    string
	UpdatedAt time.Time
}

func (c *Cart) Version() CartVersion {
	return CartVersion{UserID: c.UserID, CartID: c.ID, UpdatedAt: c.UpdatedAt}
}
