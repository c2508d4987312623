package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// CartService maintains carts and previews what checkout would charge.
type CartService struct {
	repo    ports.CartRepository
	pricing ports.PricingService
	logger  zerolog.Logger
}

func NewCartService(repo ports.CartRepository, pricing ports.PricingService, logger zerolog.Logger) *CartService {
	return &CartService{repo: repo, pricing: pricing, logger: logger}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*ports.PricedCart, error) {
	cart, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(cart), nil
}

// ReplaceCart overwrites the user's cart with items, creating it if needed.
func (s *CartService) ReplaceCart(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error) {
	cart := &domain.Cart{
		UserID:    userID,
		Items:     make([]domain.CartItem, 0, len(items)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, in := range items {
		cart.Items = append(cart.Items, domain.CartItem{
			Product:  domain.Product{ID: in.ProductID, Price: in.Price},
			Quantity: in.Quantity,
		})
	}

	saved, err := s.repo.Save(ctx, cart)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", userID).Int("items", len(saved.Items)).Msg("cart replaced")
	return s.price(saved), nil
}

func (s *CartService) price(cart *domain.Cart) *ports.PricedCart {
	priced := &ports.PricedCart{
		UserID:   cart.UserID,
		Items:    make([]ports.PricedCartItem, 0, len(cart.Items)),
		Subtotal: decimal.Zero,
		Total:    domain.RoundMoney(s.pricing.CalculateTotal(*cart)),
	}
	for _, item := range cart.Items {
		line := domain.RoundMoney(s.pricing.CalculateItemTotal(item))
		priced.Subtotal = priced.Subtotal.Add(line)
		priced.Items = append(priced.Items, ports.PricedCartItem{
			ProductID: item.Product.ID,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
			LineTotal: line,
		})
	}
	return priced
}
