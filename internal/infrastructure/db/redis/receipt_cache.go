package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

const (
	defaultReceiptCacheTTL = 5 * time.Minute
	receiptCacheNamespace  = "receipts"
)

// CachingReceiptRepository decorates a ReceiptRepository with a read-through
// cache for single receipt lookups. Writes go to the inner repository first
// and then invalidate. A nil client disables caching.
type CachingReceiptRepository struct {
	inner ports.ReceiptRepository
	rdb   *redis.Client
	ttl   time.Duration
}

var _ ports.ReceiptRepository = (*CachingReceiptRepository)(nil)

func NewCachingReceiptRepository(rdb *redis.Client, ttl time.Duration, inner ports.ReceiptRepository) *CachingReceiptRepository {
	if ttl <= 0 {
		ttl = defaultReceiptCacheTTL
	}
	return &CachingReceiptRepository{inner: inner, rdb: rdb, ttl: ttl}
}

func (c *CachingReceiptRepository) Save(ctx context.Context, receipt *domain.Receipt) (*domain.Receipt, error) {
	return c.inner.Save(ctx, receipt)
}

func (c *CachingReceiptRepository) Find(ctx context.Context, filter ports.ReceiptFilter) ([]*domain.Receipt, int64, error) {
	return c.inner.Find(ctx, filter)
}

func (c *CachingReceiptRepository) FindByID(ctx context.Context, id string) (*domain.Receipt, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.cacheKey(id)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out domain.Receipt
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingReceiptRepository) Update(ctx context.Context, id string, patch domain.ReceiptPatch) (*domain.Receipt, error) {
	out, err := c.inner.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return out, nil
}

func (c *CachingReceiptRepository) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// invalidate is best effort; a stale entry expires with the TTL.
func (c *CachingReceiptRepository) invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, c.cacheKey(id)).Err()
}

func (c *CachingReceiptRepository) cacheKey(id string) string {
	return receiptCacheNamespace + ":" + id
}
