package service

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
)

const bulkQuantityThreshold = 10

var (
	bulkDiscountMultiplier = decimal.RequireFromString("0.95")
	cartDiscountThreshold  = decimal.NewFromInt(100)
	cartDiscountMultiplier = decimal.RequireFromString("0.9")
	taxMultiplier          = decimal.RequireFromString("1.05")
)

// PricingService prices cart items and carts. It holds no state.
type PricingService struct{}

func NewPricingService() *PricingService {
	return &PricingService{}
}

// CalculateItemTotal returns price × quantity, with a 5% bulk discount when
// quantity is at least 10.
func (PricingService) CalculateItemTotal(item domain.CartItem) decimal.Decimal {
	total := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if item.Quantity >= bulkQuantityThreshold {
		total = total.Mul(bulkDiscountMultiplier)
	}
	return total
}

// Subtotal sums the item totals of a cart before any cart-level adjustment.
func (p PricingService) Subtotal(cart domain.Cart) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		subtotal = subtotal.Add(p.CalculateItemTotal(item))
	}
	return subtotal
}

// CalculateTotal applies the 10% cart discount to subtotals above 100 and then
// the 5% tax. Tax is always computed on the discounted amount.
func (p PricingService) CalculateTotal(cart domain.Cart) decimal.Decimal {
	subtotal := p.Subtotal(cart)
	if subtotal.GreaterThan(cartDiscountThreshold) {
		subtotal = subtotal.Mul(cartDiscountMultiplier)
	}
	return subtotal.Mul(taxMultiplier)
}
