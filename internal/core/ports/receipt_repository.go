package ports

import (
	"context"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// ReceiptFilter carries query parameters for listing receipts.
type ReceiptFilter struct {
	UserID string // empty = every user
	Page   int    // 1-based
	Limit  int    // 0 = no limit
}

// ReceiptRepository defines persistence operations for receipts.
// Lookups that match nothing return domain.ErrReceiptNotFound.
type ReceiptRepository interface {
	Save(ctx context.Context, receipt *domain.Receipt) (*domain.Receipt, error)
	// Find returns a page of receipts, newest first, and the total count.
	Find(ctx context.Context, filter ReceiptFilter) ([]*domain.Receipt, int64, error)
	FindByID(ctx context.Context, id string) (*domain.Receipt, error)
	Update(ctx context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error)
	Delete(ctx context.Context, id string) error
}
