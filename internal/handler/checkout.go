package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/middleware"
	"bookshop-commerce/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	validate        *validator.Validate
}

func NewCheckoutHandler(checkoutService service.CheckoutService, validate *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validate:        validate,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	return h.placeOrder(c, middleware.UserID(c))
}

// GuestCheckout creates an order without an account. The guest id in
// the request keys the order so it can be claimed later.
func (h *CheckoutHandler) GuestCheckout(c echo.Context) error {
	guestID := c.QueryParam("guest_id")
	if guestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "guest_id is required")
	}
	return h.placeOrder(c, "guest:"+guestID)
}

func (h *CheckoutHandler) placeOrder(c echo.Context, userID string) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.checkoutService.PlaceOrder(ctx, userID, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
