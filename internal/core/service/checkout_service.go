package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

type CheckoutService struct {
	carts    ports.CartRepository
	users    ports.UserRepository
	receipts ports.ReceiptRepository
	pricing  ports.PricingService
	locker   ports.CheckoutLocker
	cleaner  ports.CartCleaner
	logger   zerolog.Logger
}

func NewCheckoutService(
	carts ports.CartRepository,
	users ports.UserRepository,
	receipts ports.ReceiptRepository,
	pricing ports.PricingService,
	locker ports.CheckoutLocker,
	cleaner ports.CartCleaner,
	logger zerolog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:    carts,
		users:    users,
		receipts: receipts,
		pricing:  pricing,
		locker:   locker,
		cleaner:  cleaner,
		logger:   logger,
	}
}

// Checkout turns the user's cart into a receipt. Steps run in a fixed order
// and stop at the first failure: cart lookup, user lookup, pricing, receipt
// save, cart removal. A failed cart removal does not undo the receipt; the
// cart is handed to the cleaner instead.
func (s *CheckoutService) Checkout(ctx context.Context, userID string) (*domain.Receipt, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to release checkout lock")
		}
	}()

	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReceiptItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.ReceiptItem{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			UnitPrice: domain.RoundMoney(item.Product.Price),
			LineTotal: domain.RoundMoney(s.pricing.CalculateItemTotal(item)),
		})
	}

	receipt, err := s.receipts.Save(ctx, &domain.Receipt{
		UserID:      user.ID,
		Items:       items,
		TotalAmount: domain.RoundMoney(s.pricing.CalculateTotal(*cart)),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save receipt: %w", err)
	}

	deleted, err := s.carts.DeleteByUserID(ctx, userID)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).
			Str("user_id", userID).
			Str("receipt_id", receipt.ID).
			Msg("cart removal failed after checkout, scheduling cleanup")
		if s.cleaner != nil {
			s.cleaner.ScheduleCartCleanup(cart.Version())
		}
	case !deleted:
		s.logger.Debug().Str("user_id", userID).Msg("cart already gone after checkout")
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("receipt_id", receipt.ID).
		Str("total", receipt.TotalAmount.StringFixed(2)).
		Int("items", len(items)).
		Msg("checkout completed")

	return receipt, nil
}
