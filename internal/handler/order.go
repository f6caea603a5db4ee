package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bookshop-commerce/internal/middleware"
	"bookshop-commerce/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) ListUserOrders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orderService.ListUserOrders(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orders)
}
