package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

type stubCartService struct {
	getFn     func(ctx context.Context, userID string) (*ports.PricedCart, error)
	replaceFn func(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error)
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (*ports.PricedCart, error) {
	return s.getFn(ctx, userID)
}

func (s *stubCartService) ReplaceCart(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error) {
	return s.replaceFn(ctx, userID, items)
}

func TestCartHandler_Get(t *testing.T) {
	stub := &stubCartService{
		getFn: func(ctx context.Context, userID string) (*ports.PricedCart, error) {
			if userID != "1" {
				t.Fatalf("expected caller's cart, got %q", userID)
			}
			return &ports.PricedCart{
				UserID: "1",
				Items: []ports.PricedCartItem{{
					ProductID: "p1", Price: decimal.RequireFromString("50"), Quantity: 2,
					LineTotal: decimal.RequireFromString("100"),
				}},
				Subtotal: decimal.RequireFromString("100"),
				Total:    decimal.RequireFromString("105"),
			}, nil
		},
	}

	c, rec := newTestContext(http.MethodGet, "/v1/cart", "")
	if err := NewCartHandler(stub).Get(withCaller(c, "1", false)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	var resp cartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Total.Equal(decimal.RequireFromString("105")) || len(resp.Items) != 1 {
		t.Fatalf("unexpected cart: %+v", resp)
	}
}

func TestCartHandler_Get_NotFound(t *testing.T) {
	stub := &stubCartService{
		getFn: func(ctx context.Context, userID string) (*ports.PricedCart, error) {
			return nil, domain.ErrCartNotFound
		},
	}
	c, _ := newTestContext(http.MethodGet, "/v1/cart", "")
	if err := NewCartHandler(stub).Get(withCaller(c, "1", false)); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartHandler_Replace(t *testing.T) {
	var got []ports.CartItemInput
	stub := &stubCartService{
		replaceFn: func(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error) {
			got = items
			return &ports.PricedCart{UserID: userID}, nil
		},
	}

	c, rec := newTestContext(http.MethodPut, "/v1/cart", `{"items":[{"product_id":"p1","price":"19.99","quantity":3},{"product_id":"p2","price":5,"quantity":1}]}`)
	if err := NewCartHandler(stub).Replace(withCaller(c, "1", false)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].ProductID != "p1" || !got[0].Price.Equal(decimal.RequireFromString("19.99")) || got[0].Quantity != 3 {
		t.Fatalf("unexpected first item: %+v", got[0])
	}
	if !got[1].Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("numeric price not accepted: %+v", got[1])
	}
}

func TestCartHandler_Replace_Invalid(t *testing.T) {
	stub := &stubCartService{
		replaceFn: func(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewCartHandler(stub)

	tests := map[string]string{
		"zero quantity":   `{"items":[{"product_id":"p1","price":"1","quantity":0}]}`,
		"missing product": `{"items":[{"price":"1","quantity":1}]}`,
		"negative price":  `{"items":[{"product_id":"p1","price":"-1","quantity":1}]}`,
		"malformed price": `{"items":[{"product_id":"p1","price":"abc","quantity":1}]}`,
		"malformed json":  `{"items":`,
		"five decimals":   `{"items":[{"product_id":"p1","price":"0.12345","quantity":1}]}`,
		"price too large": `{"items":[{"product_id":"p1","price":"100000000000000","quantity":1}]}`,
		"huge quantity":   `{"items":[{"product_id":"p1","price":"1","quantity":100001}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodPut, "/v1/cart", body)
			assertHTTPError(t, h.Replace(withCaller(c, "1", false)), http.StatusBadRequest)
		})
	}
}

func TestCartHandler_Replace_AcceptsStorablePrices(t *testing.T) {
	var got []ports.CartItemInput
	stub := &stubCartService{
		replaceFn: func(ctx context.Context, userID string, items []ports.CartItemInput) (*ports.PricedCart, error) {
			got = items
			return &ports.PricedCart{UserID: userID}, nil
		},
	}

	body := `{"items":[{"product_id":"p1","price":"0.1234","quantity":1},{"product_id":"p2","price":"1.50000","quantity":1},{"product_id":"p3","price":"99999999999999.9999","quantity":1}]}`
	c, rec := newTestContext(http.MethodPut, "/v1/cart", body)
	if err := NewCartHandler(stub).Replace(withCaller(c, "1", false)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
}
