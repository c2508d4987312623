package handler

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type createUserRequest struct {
	Username     string `json:"username"      validate:"required,min=3,max=64"`
	Password     string `json:"password"      validate:"required,min=6,max=72"`
	IsPrivileged bool   `json:"is_privileged"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type userResponse struct {
	User *domain.User `json:"user"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *domain.User `json:"user"`
}

type sessionResponse struct {
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	IsPrivileged bool   `json:"is_privileged"`
}

func toTokenResponse(r *ports.LoginResult) tokenResponse {
	return tokenResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    "Bearer",
		User:         r.User,
	}
}

// --- Cart ---

type cartItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"   validate:"required,gt=0,max=100000"`
}

type replaceCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"dive"`
}

type cartItemResponse struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartResponse struct {
	UserID   string             `json:"user_id"`
	Items    []cartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Total    decimal.Decimal    `json:"total"`
}

func toCartResponse(c *ports.PricedCart) cartResponse {
	resp := cartResponse{
		UserID:   c.UserID,
		Items:    make([]cartItemResponse, 0, len(c.Items)),
		Subtotal: c.Subtotal,
		Total:    c.Total,
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal,
		})
	}
	return resp
}

// --- Receipts ---

type updateReceiptRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

type receiptListResponse struct {
	Data       []*domain.Receipt `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
