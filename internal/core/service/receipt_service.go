package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

const (
	defaultReceiptLimit = 20
	maxReceiptLimit     = 100
)

type ReceiptService struct {
	repo   ports.ReceiptRepository
	logger zerolog.Logger
}

func NewReceiptService(repo ports.ReceiptRepository, logger zerolog.Logger) *ReceiptService {
	return &ReceiptService{repo: repo, logger: logger}
}

// ListReceipts returns a page of receipts, newest first. Non-privileged
// callers only ever see their own.
func (s *ReceiptService) ListReceipts(ctx context.Context, input ports.ListReceiptsInput) (*ports.ListReceiptsResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultReceiptLimit
	case limit > maxReceiptLimit:
		limit = maxReceiptLimit
	}

	filter := ports.ReceiptFilter{Page: page, Limit: limit}
	if !input.Caller.IsPrivileged {
		filter.UserID = input.Caller.UserID
	}

	items, total, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListReceiptsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// GetReceipt hides other users' receipts from non-privileged callers behind
// ErrReceiptNotFound.
func (s *ReceiptService) GetReceipt(ctx context.Context, id string, caller ports.Caller) (*domain.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsPrivileged && receipt.UserID != caller.UserID {
		return nil, domain.ErrReceiptNotFound
	}
	return receipt, nil
}

func (s *ReceiptService) UpdateReceipt(ctx context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error) {
	receipt, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("receipt_id", id).Msg("receipt updated")
	return receipt, nil
}

func (s *ReceiptService) DeleteReceipt(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("receipt_id", id).Msg("receipt deleted")
	return nil
}
