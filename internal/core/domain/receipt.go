package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptItem is one priced line of a completed checkout.
type ReceiptItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Receipt is the immutable record of a successful checkout. Only Note may be
// changed after creation.
type Receipt struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Items       []ReceiptItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReceiptPatch carries the mutable subset of a receipt.
type ReceiptPatch struct {
	Note *string
}
