package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
)

// CartRepository stores one cart row per user with its items in cart_items,
// ordered by position.
type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	return r.fetch(ctx, r.pool, userID)
}

func (r *CartRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	const q = `DELETE FROM carts WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, q, userID)
	if err != nil {
		return false, fmt.Errorf("delete cart: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *CartRepository) DeleteVersion(ctx context.Context, v domain.CartVersion) (bool, error) {
	const q = `DELETE FROM carts WHERE user_id = $1 AND id = $2 AND updated_at = $3`
	tag, err := r.pool.Exec(ctx, q, v.UserID, v.CartID, v.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("delete cart version: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Save replaces the user's items in a single transaction, creating the cart
// row on first use.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin cart tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updatedAt := cart.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	const upsert = `
INSERT INTO carts (id, user_id, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
RETURNING id
`
	var cartID string
	if err := tx.QueryRow(ctx, upsert, uuid.NewString(), cart.UserID, updatedAt).Scan(&cartID); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, fmt.Errorf("clear cart items: %w", err)
	}

	if len(cart.Items) > 0 {
		const insert = `
INSERT INTO cart_items (cart_id, position, product_id, price, quantity)
VALUES ($1, $2, $3, $4::numeric, $5)
`
		batch := &pgx.Batch{}
		for i, it := range cart.Items {
			batch.Queue(insert, cartID, i, it.Product.ID, it.Product.Price.String(), it.Quantity)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("insert cart items: %w", err)
		}
	}

	saved, err := r.fetch(ctx, tx, cart.UserID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cart: %w", err)
	}
	return saved, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *CartRepository) fetch(ctx context.Context, q querier, userID string) (*domain.Cart, error) {
	const cartQuery = `SELECT id, user_id, updated_at FROM carts WHERE user_id = $1`

	var cart domain.Cart
	if err := q.QueryRow(ctx, cartQuery, userID).Scan(&cart.ID, &cart.UserID, &cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	cart.UpdatedAt = cart.UpdatedAt.UTC()

	const itemsQuery = `
SELECT product_id, price::text, quantity
FROM cart_items
WHERE cart_id = $1
ORDER BY position ASC
`
	rows, err := q.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("find cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var (
			item  domain.CartItem
			price string
		)
		if err := rows.Scan(&item.Product.ID, &price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if item.Product.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse price %q: %w", price, err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return &cart, nil
}
