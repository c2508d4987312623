package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
	"github.com/storefront/commerce-core/internal/core/service"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	alice, err := repo.Save(ctx, &domain.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, alice.ID)

	_, err = repo.Save(ctx, &domain.User{Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrUserExists)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byName.Username = "mutated"
	again, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username, "returned users must be copies")

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	alice.IsPrivileged = true
	updated, err := repo.Save(ctx, alice)
	require.NoError(t, err)
	assert.True(t, updated.IsPrivileged)
}

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()

	_, err := repo.GetByUserID(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrCartNotFound)

	first, err := repo.Save(ctx, &domain.Cart{UserID: "1", Items: []domain.CartItem{
		{Product: domain.Product{ID: "101", Price: decimal.NewFromInt(50)}, Quantity: 2},
	}})
	require.NoError(t, err)

	second, err := repo.Save(ctx, &domain.Cart{UserID: "1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "saving again replaces the same cart")

	got, err := repo.GetByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	deleted, err := repo.DeleteByUserID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByUserID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCartRepository_DeleteVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	checkedOut, err := repo.Save(ctx, &domain.Cart{UserID: "1", UpdatedAt: t0, Items: []domain.CartItem{
		{Product: domain.Product{ID: "101", Price: decimal.NewFromInt(50)}, Quantity: 2},
	}})
	require.NoError(t, err)

	_, err = repo.Save(ctx, &domain.Cart{UserID: "1", UpdatedAt: t0.Add(time.Minute), Items: []domain.CartItem{
		{Product: domain.Product{ID: "202", Price: decimal.NewFromInt(10)}, Quantity: 1},
	}})
	require.NoError(t, err)

	deleted, err := repo.DeleteVersion(ctx, checkedOut.Version())
	require.NoError(t, err)
	assert.False(t, deleted, "a newer cart must not be removed")

	current, err := repo.GetByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "202", current.Items[0].Product.ID)

	deleted, err = repo.DeleteVersion(ctx, current.Version())
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteVersion(ctx, current.Version())
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReceiptRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReceiptRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i, uid := range []string{"1", "2", "1"} {
		rec, err := repo.Save(ctx, &domain.Receipt{UserID: uid, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	all, total, err := repo.Find(ctx, ports.ReceiptFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, ids[2], all[0].ID, "newest first")

	page, total, err := repo.Find(ctx, ports.ReceiptFilter{UserID: "1", Page: 2, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	note := "n"
	updated, err := repo.Update(ctx, ids[1], domain.ReceiptPatch{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, "n", updated.Note)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err = repo.FindByID(ctx, ids[1])
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ids[1]), domain.ErrReceiptNotFound)
}

func TestCheckoutLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewCheckoutLocker()

	release, err := locker.Acquire(ctx, "1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrCheckoutInProgress)

	other, err := locker.Acquire(ctx, "2")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx), "release is idempotent")

	again, err := locker.Acquire(ctx, "1")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestConcurrentCheckoutProducesSingleReceipt(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository()
	carts := NewCartRepository()
	receipts := NewReceiptRepository()

	user, err := users.Save(ctx, &domain.User{Username: "test"})
	require.NoError(t, err)
	_, err = carts.Save(ctx, &domain.Cart{UserID: user.ID, Items: []domain.CartItem{
		{Product: domain.Product{ID: "101", Price: decimal.NewFromInt(50)}, Quantity: 2},
	}})
	require.NoError(t, err)

	svc := service.NewCheckoutService(carts, users, receipts, service.NewPricingService(), NewCheckoutLocker(), nil, zerolog.Nop())

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(ctx, user.ID)
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case errors.Is(err, domain.ErrCheckoutInProgress), errors.Is(err, domain.ErrCartNotFound):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	_, total, err := receipts.Find(ctx, ports.ReceiptFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	rec, _, _ := receipts.Find(ctx, ports.ReceiptFilter{})
	assert.True(t, decimal.NewFromInt(105).Equal(rec[0].TotalAmount))
}
