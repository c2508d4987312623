package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

type stubReceiptRepo struct {
	log     *callLog
	saved   []*domain.Receipt
	saveErr error
	findErr error
	filters []ports.ReceiptFilter
}

func newStubReceiptRepo(log *callLog) *stubReceiptRepo {
	if log == nil {
		log = &callLog{}
	}
	return &stubReceiptRepo{log: log}
}

func cloneReceipt(r *domain.Receipt) *domain.Receipt {
	clone := *r
	clone.Items = append([]domain.ReceiptItem(nil), r.Items...)
	return &clone
}

func (r *stubReceiptRepo) Save(_ context.Context, receipt *domain.Receipt) (*domain.Receipt, error) {
	r.log.add("receipt.save")
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	stored := cloneReceipt(receipt)
	stored.ID = fmt.Sprintf("r-%d", len(r.saved)+1)
	r.saved = append(r.saved, stored)
	return cloneReceipt(stored), nil
}

func (r *stubReceiptRepo) Find(_ context.Context, filter ports.ReceiptFilter) ([]*domain.Receipt, int64, error) {
	r.filters = append(r.filters, filter)
	if r.findErr != nil {
		return nil, 0, r.findErr
	}
	var matched []*domain.Receipt
	for _, rec := range r.saved {
		if filter.UserID == "" || rec.UserID == filter.UserID {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]*domain.Receipt, 0, end-start)
	for _, rec := range matched[start:end] {
		out = append(out, cloneReceipt(rec))
	}
	return out, total, nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id string) (*domain.Receipt, error) {
	for _, rec := range r.saved {
		if rec.ID == id {
			return cloneReceipt(rec), nil
		}
	}
	return nil, domain.ErrReceiptNotFound
}

func (r *stubReceiptRepo) Update(_ context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error) {
	for _, rec := range r.saved {
		if rec.ID == id {
			if patch.Note != nil {
				rec.Note = *patch.Note
			}
			return cloneReceipt(rec), nil
		}
	}
	return nil, domain.ErrReceiptNotFound
}

func (r *stubReceiptRepo) Delete(_ context.Context, id string) error {
	for i, rec := range r.saved {
		if rec.ID == id {
			r.saved = append(r.saved[:i], r.saved[i+1:]...)
			return nil
		}
	}
	return domain.ErrReceiptNotFound
}

func seedReceipts(t *testing.T, repo *stubReceiptRepo, userIDs ...string) {
	t.Helper()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, uid := range userIDs {
		_, err := repo.Save(context.Background(), &domain.Receipt{
			UserID:      uid,
			TotalAmount: dec("105"),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestListReceipts_PrivilegedSeesAll(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1", "2", "2")
	svc := NewReceiptService(repo, zerolog.Nop())

	res, err := svc.ListReceipts(context.Background(), ports.ListReceiptsInput{
		Caller: ports.Caller{UserID: "1", IsPrivileged: true}, Page: 1, Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Errorf("expected 3 total, got %d", res.Total)
	}
	if repo.filters[0].UserID != "" {
		t.Errorf("privileged listing must not be scoped, got %q", repo.filters[0].UserID)
	}
}

func TestListReceipts_UserSeesOwn(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1", "2", "2")
	svc := NewReceiptService(repo, zerolog.Nop())

	res, err := svc.ListReceipts(context.Background(), ports.ListReceiptsInput{
		Caller: ports.Caller{UserID: "2"}, Page: 1, Limit: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 2 {
		t.Errorf("expected 2, got %d", res.Total)
	}
	for _, r := range res.Items {
		if r.UserID != "2" {
			t.Errorf("leaked receipt of user %s", r.UserID)
		}
	}
	if !res.Items[0].CreatedAt.After(res.Items[1].CreatedAt) {
		t.Errorf("expected newest first")
	}
}

func TestListReceipts_LimitDefaults(t *testing.T) {
	svc := NewReceiptService(newStubReceiptRepo(nil), zerolog.Nop())

	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative", -3, -1, 1, 20},
		{"capped", 2, 999, 2, 100},
		{"kept", 3, 50, 3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListReceipts(context.Background(), ports.ListReceiptsInput{
				Caller: ports.Caller{IsPrivileged: true}, Page: tt.page, Limit: tt.limit,
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.Page != tt.wantPage || res.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d", res.Page, res.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestListReceipts_PaginationMath(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1", "1", "1", "1", "1")
	svc := NewReceiptService(repo, zerolog.Nop())

	res, err := svc.ListReceipts(context.Background(), ports.ListReceiptsInput{
		Caller: ports.Caller{UserID: "1"}, Page: 3, Limit: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 || res.TotalPages != 3 || len(res.Items) != 1 {
		t.Errorf("unexpected page: total=%d pages=%d items=%d", res.Total, res.TotalPages, len(res.Items))
	}
}

func TestListReceipts_RepoError(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	repo.findErr = errors.New("boom")
	svc := NewReceiptService(repo, zerolog.Nop())

	if _, err := svc.ListReceipts(context.Background(), ports.ListReceiptsInput{}); !errors.Is(err, repo.findErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestGetReceipt_Scoping(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1", "2")
	svc := NewReceiptService(repo, zerolog.Nop())
	ctx := context.Background()

	if r, err := svc.GetReceipt(ctx, "r-1", ports.Caller{UserID: "1"}); err != nil || r.UserID != "1" {
		t.Fatalf("owner should see own receipt: %v", err)
	}
	if _, err := svc.GetReceipt(ctx, "r-2", ports.Caller{UserID: "1"}); err != domain.ErrReceiptNotFound {
		t.Fatalf("expected ErrReceiptNotFound for foreign receipt, got %v", err)
	}
	if _, err := svc.GetReceipt(ctx, "r-2", ports.Caller{UserID: "1", IsPrivileged: true}); err != nil {
		t.Fatalf("privileged caller should see any receipt: %v", err)
	}
	if _, err := svc.GetReceipt(ctx, "missing", ports.Caller{IsPrivileged: true}); err != domain.ErrReceiptNotFound {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
}

func TestUpdateReceipt_Note(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1")
	svc := NewReceiptService(repo, zerolog.Nop())

	note := "gift wrap"
	updated, err := svc.UpdateReceipt(context.Background(), "r-1", domain.ReceiptPatch{Note: &note})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Note != note || !updated.TotalAmount.Equal(dec("105")) {
		t.Fatalf("unexpected receipt after update: %+v", updated)
	}

	if _, err := svc.UpdateReceipt(context.Background(), "missing", domain.ReceiptPatch{Note: &note}); err != domain.ErrReceiptNotFound {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
}

func TestDeleteReceipt(t *testing.T) {
	repo := newStubReceiptRepo(nil)
	seedReceipts(t, repo, "1")
	svc := NewReceiptService(repo, zerolog.Nop())

	if err := svc.DeleteReceipt(context.Background(), "r-1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteReceipt(context.Background(), "r-1"); err != domain.ErrReceiptNotFound {
		t.Fatalf("expected ErrReceiptNotFound on second delete, got %v", err)
	}
}
