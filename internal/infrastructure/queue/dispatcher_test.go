package queue

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
	"github.com/storefront/commerce-core/internal/infrastructure/db/memory"
)

type flakyCartRepo struct {
	mu       sync.Mutex
	failures int // remaining failures before success
	calls    map[string]int
}

func newFlakyCartRepo(failures int) *flakyCartRepo {
	return &flakyCartRepo{failures: failures, calls: make(map[string]int)}
}

func (r *flakyCartRepo) GetByUserID(context.Context, string) (*domain.Cart, error) {
	return nil, domain.ErrCartNotFound
}

func (r *flakyCartRepo) Save(_ context.Context, c *domain.Cart) (*domain.Cart, error) {
	return c, nil
}

func (r *flakyCartRepo) DeleteByUserID(context.Context, string) (bool, error) {
	return false, errors.New("not used by the dispatcher")
}

func (r *flakyCartRepo) DeleteVersion(_ context.Context, v domain.CartVersion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[v.UserID]++
	if r.failures > 0 {
		r.failures--
		return false, errors.New("db unavailable")
	}
	return true, nil
}

func (r *flakyCartRepo) callsFor(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[userID]
}

func newTestDispatcher(workers int, repo ports.CartRepository) *CartCleanupDispatcher {
	d := NewCartCleanupDispatcher(workers, repo, zerolog.Nop())
	d.baseBackoff = time.Millisecond
	return d
}

func TestCartCleanupDispatcher_RetriesUntilDeleted(t *testing.T) {
	repo := newFlakyCartRepo(2)
	d := newTestDispatcher(2, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.ScheduleCartCleanup(domain.CartVersion{UserID: "1", CartID: "c-1"})

	assert.Eventually(t, func() bool { return repo.callsFor("1") == 3 }, time.Second, 5*time.Millisecond)
}

func TestCartCleanupDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := newFlakyCartRepo(100)
	d := newTestDispatcher(1, repo)
	d.maxAttempts = 3

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.ScheduleCartCleanup(domain.CartVersion{UserID: "1", CartID: "c-1"})

	assert.Eventually(t, func() bool { return repo.callsFor("1") == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, repo.callsFor("1"))
}

func TestCartCleanupDispatcher_ShardIndexIsStable(t *testing.T) {
	d := newTestDispatcher(8, newFlakyCartRepo(0))

	for _, id := range []string{"1", "42", "user-abc"} {
		first := d.shardIndex(id)
		require.GreaterOrEqual(t, first, 0)
		require.Less(t, first, 8)
		assert.Equal(t, first, d.shardIndex(id))
	}
}

func TestCartCleanupDispatcher_DropsWhenFull(t *testing.T) {
	repo := newFlakyCartRepo(0)
	d := newTestDispatcher(1, repo)

	// Not started: the buffer fills and further requests are dropped
	// without blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.ScheduleCartCleanup(domain.CartVersion{UserID: "1", CartID: "c-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ScheduleCartCleanup blocked on a full queue")
	}
	assert.Len(t, d.workers[0], channelBuffer)
}

func TestNewCartCleanupDispatcher_DefaultWorkers(t *testing.T) {
	d := NewCartCleanupDispatcher(0, newFlakyCartRepo(0), zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}

// unreachableCartRepo fails every immediate delete so checkout has to hand
// the cart to the dispatcher.
type unreachableCartRepo struct {
	*memory.CartRepository
	mu           sync.Mutex
	versionCalls int
}

func (r *unreachableCartRepo) DeleteByUserID(context.Context, string) (bool, error) {
	return false, errors.New("db unavailable")
}

func (r *unreachableCartRepo) DeleteVersion(ctx context.Context, v domain.CartVersion) (bool, error) {
	r.mu.Lock()
	r.versionCalls++
	r.mu.Unlock()
	return r.CartRepository.DeleteVersion(ctx, v)
}

func (r *unreachableCartRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versionCalls
}

func checkoutWithFailedDelete(t *testing.T) (*unreachableCartRepo, *CartCleanupDispatcher, string) {
	t.Helper()
	ctx := context.Background()

	carts := &unreachableCartRepo{CartRepository: memory.NewCartRepository()}
	users := memory.NewUserRepository()
	user, err := users.Save(ctx, &domain.User{Username: "alice"})
	require.NoError(t, err)

	_, err = carts.Save(ctx, &domain.Cart{
		UserID:    user.ID,
		Items:     []domain.CartItem{{Product: domain.Product{ID: "101", Price: decimal.NewFromInt(50)}, Quantity: 2}},
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	d := newTestDispatcher(1, carts)

	svc := service.NewCheckoutService(carts, users, memory.NewReceiptRepository(), service.NewPricingService(),
		memory.NewCheckoutLocker(), d, zerolog.Nop())
	receipt, err := svc.Checkout(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, receipt.TotalAmount.Equal(decimal.NewFromInt(105)))

	return carts, d, user.ID
}

func TestCartCleanupDispatcher_RemovesCheckedOutCart(t *testing.T) {
	carts, d, userID := checkoutWithFailedDelete(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	assert.Eventually(t, func() bool {
		_, err := carts.GetByUserID(ctx, userID)
		return errors.Is(err, domain.ErrCartNotFound)
	}, time.Second, 5*time.Millisecond)
}

func TestCartCleanupDispatcher_KeepsCartSavedAfterCheckout(t *testing.T) {
	carts, d, userID := checkoutWithFailedDelete(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := carts.Save(ctx, &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{{Product: domain.Product{ID: "202", Price: decimal.NewFromInt(10)}, Quantity: 1}},
		UpdatedAt: time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	d.Start(ctx)
	require.Eventually(t, func() bool { return carts.calls() == 1 }, time.Second, 5*time.Millisecond)

	cart, err := carts.GetByUserID(ctx, userID)
	require.NoError(t, err, "cart saved after checkout must survive cleanup")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "202", cart.Items[0].Product.ID)
}
