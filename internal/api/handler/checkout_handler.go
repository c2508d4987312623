package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-core/internal/api/metrics"
	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

type CheckoutHandler struct {
	service ports.CheckoutService
}

func NewCheckoutHandler(service ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// Checkout handles POST /v1/checkout.
//
// @Summary      Check out the current cart
// @Description  Prices the caller's cart, stores a receipt and empties the cart.
// @Tags         checkout
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  domain.Receipt
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	start := time.Now()
	receipt, err := h.service.Checkout(c.Request().Context(), caller.UserID)
	metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	metrics.CheckoutsTotal.WithLabelValues(checkoutResult(err)).Inc()
	if err != nil {
		return err
	}

	metrics.CheckoutAmount.Observe(receipt.TotalAmount.InexactFloat64())
	c.Response().Header().Set(echo.HeaderLocation, "/v1/receipts/"+receipt.ID)
	return c.JSON(http.StatusCreated, receipt)
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrCartNotFound):
		return "cart_not_found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return "in_progress"
	default:
		return "error"
	}
}
