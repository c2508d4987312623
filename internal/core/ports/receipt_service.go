package ports

import (
	"context"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// Caller identifies who is asking. Non-privileged callers are scoped to
// their own receipts.
type Caller struct {
	UserID       string
	IsPrivileged bool
}

// ListReceiptsInput carries all parameters for the list endpoint.
type ListReceiptsInput struct {
	Caller Caller
	Page   int
	Limit  int
}

// ListReceiptsResult is returned by ListReceipts.
type ListReceiptsResult struct {
	Items      []*domain.Receipt
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type ReceiptService interface {
	ListReceipts(ctx context.Context, input ListReceiptsInput) (*ListReceiptsResult, error)
	GetReceipt(ctx context.Context, id string, caller Caller) (*domain.Receipt, error)
	UpdateReceipt(ctx context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error)
	DeleteReceipt(ctx context.Context, id string) error
}
