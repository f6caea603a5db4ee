package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/middleware"
	"bookshop-commerce/internal/service"
)

type CartHandler struct {
	cartService service.CartService
	validate    *validator.Validate
}

func NewCartHandler(cartService service.CartService, validate *validator.Validate) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    validate,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()

	lines, err := h.cartService.List(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: lines})
}

func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines, err := h.cartService.Add(ctx, middleware.UserID(c), req.BookID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: lines})
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	var req dto.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	lines, err := h.cartService.SetQuantity(ctx, middleware.UserID(c), bookID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: lines})
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()

	bookID, err := bookIDParam(c)
	if err != nil {
		return err
	}

	lines, err := h.cartService.Remove(ctx, middleware.UserID(c), bookID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: lines})
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.cartService.Clear(ctx, middleware.UserID(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: []dto.CartLine{}})
}

func (h *CartHandler) TransferGuest(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TransferGuestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines, err := h.cartService.TransferGuest(ctx, middleware.UserID(c), req.CartItems)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.CartResponse{Items: lines})
}

func bookIDParam(c echo.Context) (uint, error) {
	raw := c.Param("book_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid book_id")
	}
	return uint(id), nil
}
