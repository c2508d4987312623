package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

// maxPrice is the first value that no longer fits NUMERIC(18,4).
var maxPrice = decimal.New(1, 18-domain.MoneyScale)

// CartHandler exposes the caller's own cart.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// Get handles GET /v1/cart.
//
// @Summary      Get the current cart with prices
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  cartResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	cart, err := h.service.GetCart(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// Replace handles PUT /v1/cart.
//
// @Summary      Replace the current cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      replaceCartRequest  true  "Cart items"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/cart [put]
func (h *CartHandler) Replace(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req replaceCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	items := make([]ports.CartItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		if err := validatePrice(it.Price); err != nil {
			return err
		}
		items = append(items, ports.CartItemInput{
			ProductID: it.ProductID,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	cart, err := h.service.ReplaceCart(c.Request().Context(), caller.UserID, items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(cart))
}

// validatePrice keeps prices storable by every driver without rounding.
func validatePrice(p decimal.Decimal) error {
	switch {
	case p.IsNegative():
		return echo.NewHTTPError(http.StatusBadRequest, "items.price must not be negative")
	case !p.Equal(p.Truncate(domain.MoneyScale)):
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("items.price must have at most %d decimal places", domain.MoneyScale))
	case p.GreaterThanOrEqual(maxPrice):
		return echo.NewHTTPError(http.StatusBadRequest, "items.price is too large")
	}
	return nil
}
