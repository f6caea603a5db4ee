package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/middleware"
	"bookshop-commerce/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	validate       *validator.Validate
	uploadsDir     string
	baseURL        string
}

func NewPaymentHandler(paymentService service.PaymentService, validate *validator.Validate, uploadsDir, baseURL string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		validate:       validate,
		uploadsDir:     uploadsDir,
		baseURL:        baseURL,
	}
}

func (h *PaymentHandler) PrepareInline(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PrepareInlineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	params, err := h.paymentService.PrepareInline(ctx, middleware.UserID(c), req.OrderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, params)
}

func (h *PaymentHandler) CompletePayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CompletePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.paymentService.CompletePayment(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) GetBankTransfer(c echo.Context) error {
	ctx := c.Request().Context()

	resp, err := h.paymentService.GetBankTransfer(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// UploadProof accepts the proof image as a multipart file. The stored
// file only backs the admin review screen; image processing stays out
// of this service.
func (h *PaymentHandler) UploadProof(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := strconv.ParseUint(c.Param("orderId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "proof file is required")
	}

	imageURL, err := h.saveProofFile(fileHeader)
	if err != nil {
		return fmt.Errorf("save proof file: %w", err)
	}

	proof, err := h.paymentService.UploadProof(ctx, middleware.UserID(c), uint(orderID), imageURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, proof)
}

func (h *PaymentHandler) saveProofFile(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(fileHeader.Filename)
	dst, err := os.Create(filepath.Join(h.uploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return h.baseURL + "/uploads/" + name, nil
}
