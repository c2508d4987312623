// Package memory implements in-process repositories for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// Ensure interfaces are met.
var _ ports.UserRepository = (*UserRepository)(nil)
var _ ports.CartRepository = (*CartRepository)(nil)
var _ ports.ReceiptRepository = (*ReceiptRepository)(nil)
var _ ports.CheckoutLocker = (*CheckoutLocker)(nil)

// --- UserRepository ---

type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.Username == user.Username && id != user.ID {
			return nil, domain.ErrUserExists
		}
	}

	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	} else if _, ok := r.users[stored.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

// --- CartRepository ---

type CartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart // keyed by user ID
}

func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]*domain.Cart)}
}

func cloneCart(c *domain.Cart) *domain.Cart {
	clone := *c
	clone.Items = append([]domain.CartItem(nil), c.Items...)
	return &clone
}

func (r *CartRepository) GetByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (r *CartRepository) DeleteByUserID(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.carts[userID]
	delete(r.carts, userID)
	return ok, nil
}

func (r *CartRepository) DeleteVersion(_ context.Context, v domain.CartVersion) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.carts[v.UserID]
	if !ok || c.ID != v.CartID || !c.UpdatedAt.Equal(v.UpdatedAt) {
		return false, nil
	}
	delete(r.carts, v.UserID)
	return true, nil
}

func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneCart(cart)
	if existing, ok := r.carts[cart.UserID]; ok {
		stored.ID = existing.ID
	} else if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	r.carts[cart.UserID] = stored
	return cloneCart(stored), nil
}

// --- ReceiptRepository ---

type ReceiptRepository struct {
	mu       sync.Mutex
	receipts []*domain.Receipt
}

func NewReceiptRepository() *ReceiptRepository {
	return &ReceiptRepository{}
}

func cloneReceipt(r *domain.Receipt) *domain.Receipt {
	clone := *r
	clone.Items = append([]domain.ReceiptItem(nil), r.Items...)
	return &clone
}

func (r *ReceiptRepository) Save(_ context.Context, receipt *domain.Receipt) (*domain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneReceipt(receipt)
	stored.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.receipts = append(r.receipts, stored)
	return cloneReceipt(stored), nil
}

func (r *ReceiptRepository) Find(_ context.Context, filter ports.ReceiptFilter) ([]*domain.Receipt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Receipt
	for _, rec := range r.receipts {
		if filter.UserID == "" || rec.UserID == filter.UserID {
			matched = append(matched, rec)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := min((page-1)*filter.Limit, len(matched))
		end := min(start+filter.Limit, len(matched))
		matched = matched[start:end]
	}

	out := make([]*domain.Receipt, 0, len(matched))
	for _, rec := range matched {
		out = append(out, cloneReceipt(rec))
	}
	return out, total, nil
}

func (r *ReceiptRepository) FindByID(_ context.Context, id string) (*domain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		return cloneReceipt(r.receipts[i]), nil
	}
	return nil, domain.ErrReceiptNotFound
}

func (r *ReceiptRepository) Update(_ context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrReceiptNotFound
	}
	if patch.Note != nil {
		r.receipts[i].Note = *patch.Note
	}
	return cloneReceipt(r.receipts[i]), nil
}

func (r *ReceiptRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return domain.ErrReceiptNotFound
	}
	r.receipts = append(r.receipts[:i], r.receipts[i+1:]...)
	return nil
}

func (r *ReceiptRepository) indexOf(id string) int {
	for i, rec := range r.receipts {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// --- CheckoutLocker ---

// CheckoutLocker is the single-process counterpart of the Redis locker.
type CheckoutLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewCheckoutLocker() *CheckoutLocker {
	return &CheckoutLocker{held: make(map[string]struct{})}
}

func (l *CheckoutLocker) Acquire(_ context.Context, userID string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[userID]; busy {
		return nil, domain.ErrCheckoutInProgress
	}
	l.held[userID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, userID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
