package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/service"
)

// AdminHandler carries the review actions for bank transfers. The full
// admin panel lives elsewhere; these endpoints are what it calls.
type AdminHandler struct {
	paymentService service.PaymentService
	validate       *validator.Validate
}

func NewAdminHandler(paymentService service.PaymentService, validate *validator.Validate) *AdminHandler {
	return &AdminHandler{
		paymentService: paymentService,
		validate:       validate,
	}
}

func (h *AdminHandler) ReviewBankTransfer(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ReviewBankTransferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	view, err := h.paymentService.ReviewBankTransfer(ctx, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}
