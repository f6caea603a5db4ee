package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"bookshop-commerce/internal/config"
	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/handler"
	"bookshop-commerce/internal/middleware"
	"bookshop-commerce/internal/service"
)

type Server struct {
	echo            *echo.Echo
	cartHandler     *handler.CartHandler
	checkoutHandler *handler.CheckoutHandler
	paymentHandler  *handler.PaymentHandler
	orderHandler    *handler.OrderHandler
	adminHandler    *handler.AdminHandler
	cfg             *config.Config
}

func NewServer(
	cfg *config.Config,
	cartService service.CartService,
	checkoutService service.CheckoutService,
	paymentService service.PaymentService,
	orderService service.OrderService,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	e.HTTPErrorHandler = errorHandler

	validate := validator.New()

	s := &Server{
		echo:            e,
		cartHandler:     handler.NewCartHandler(cartService, validate),
		checkoutHandler: handler.NewCheckoutHandler(checkoutService, validate),
		paymentHandler:  handler.NewPaymentHandler(paymentService, validate, cfg.UploadsDir, cfg.BaseURL),
		orderHandler:    handler.NewOrderHandler(orderService),
		adminHandler:    handler.NewAdminHandler(paymentService, validate),
		cfg:             cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	auth := middleware.Auth(s.cfg.Auth.JWTSecret)

	// -------- cart --------
	cart := api.Group("/cart", auth)
	cart.GET("", s.cartHandler.GetCart)
	cart.POST("/add", s.cartHandler.AddItem)
	cart.DELETE("/clear", s.cartHandler.ClearCart)
	cart.PUT("/:book_id", s.cartHandler.UpdateItem)
	cart.DELETE("/:book_id", s.cartHandler.RemoveItem)
	cart.POST("/transfer-guest", s.cartHandler.TransferGuest)

	// -------- checkout --------
	api.POST("/checkout-new", s.checkoutHandler.Checkout, auth)
	api.POST("/guest-checkout", s.checkoutHandler.GuestCheckout)

	// -------- payment --------
	payment := api.Group("/payment", auth)
	payment.POST("/inline", s.paymentHandler.PrepareInline)
	payment.POST("/complete", s.paymentHandler.CompletePayment)

	bank := api.Group("/bank-transfer", auth)
	bank.GET("/:id", s.paymentHandler.GetBankTransfer)
	bank.POST("/upload-proof/:orderId", s.paymentHandler.UploadProof)

	// -------- orders --------
	api.GET("/orders/user", s.orderHandler.ListUserOrders, auth)

	// -------- admin review (external collaborator surface) --------
	admin := api.Group("/admin", middleware.AdminKey(s.cfg.Auth.AdminAPIKey))
	admin.PUT("/bank-transfer/:id/status", s.adminHandler.ReviewBankTransfer)

	s.echo.Static("/uploads", s.cfg.UploadsDir)
}

// errorHandler converts typed service errors into the wire error shape
// so every client sees one taxonomy.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg, _ := httpErr.Message.(string)
		_ = c.JSON(httpErr.Code, dto.ErrorResponse{Error: msg})
		return
	}

	var appErr *errs.Error
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.KindValidation:
			status = http.StatusUnprocessableEntity
		case errs.KindAuth:
			status = http.StatusUnauthorized
		case errs.KindPayment:
			status = http.StatusPaymentRequired
		case errs.KindNetwork:
			status = http.StatusBadGateway
		}
		_ = c.JSON(status, dto.ErrorResponse{
			Error: appErr.Message,
			Field: appErr.Field,
			Kind:  appErr.Kind.String(),
		})
		return
	}

	_ = c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Handler exposes the router for httptest-based integration tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
