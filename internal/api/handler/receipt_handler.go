package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-core/internal/core/domain"
	"github.com/storefront/commerce-core/internal/core/ports"
)

type ReceiptHandler struct {
	service ports.ReceiptService
}

func NewReceiptHandler(service ports.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// List handles GET /v1/receipts.
//
// @Summary      List receipts
// @Description  Privileged callers see every receipt, everyone else only their own.
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  receiptListResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /v1/receipts [get]
func (h *ReceiptHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	res, err := h.service.ListReceipts(c.Request().Context(), ports.ListReceiptsInput{
		Caller: caller,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	data := res.Items
	if data == nil {
		data = []*domain.Receipt{}
	}
	return c.JSON(http.StatusOK, receiptListResponse{
		Data:       data,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// Get handles GET /v1/receipts/:id.
//
// @Summary      Get a receipt
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Receipt ID"
// @Success      200  {object}  domain.Receipt
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/receipts/{id} [get]
func (h *ReceiptHandler) Get(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	receipt, err := h.service.GetReceipt(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receipt)
}

// Update handles PUT /v1/receipts/:id. Only the note can change.
//
// @Summary      Update a receipt note
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Receipt ID"
// @Param        body  body      updateReceiptRequest  true  "Patch"
// @Success      200   {object}  domain.Receipt
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/receipts/{id} [put]
func (h *ReceiptHandler) Update(c echo.Context) error {
	var req updateReceiptRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	receipt, err := h.service.UpdateReceipt(c.Request().Context(), c.Param("id"), domain.ReceiptPatch{Note: req.Note})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, receipt)
}

// Delete handles DELETE /v1/receipts/:id.
//
// @Summary      Delete a receipt
// @Tags         receipts
// @Security     BearerAuth
// @Param        id   path  string  true  "Receipt ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteReceipt(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}
