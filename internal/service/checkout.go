package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookshop-commerce/internal/config"
	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
	"bookshop-commerce/internal/repository"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db            *gorm.DB
	bookRepo      repository.BookRepository
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	shippingRates map[string]decimal.Decimal
}

func NewCheckoutService(
	db *gorm.DB,
	bookRepo repository.BookRepository,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	shippingCfg *config.Shipping,
) CheckoutService {
	return &checkoutServiceImpl{
		db:            db,
		bookRepo:      bookRepo,
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		shippingRates: shippingRatesFromConfig(shippingCfg),
	}
}

func shippingRatesFromConfig(cfg *config.Shipping) map[string]decimal.Decimal {
	standard, err := decimal.NewFromString(cfg.StandardCost)
	if err != nil {
		standard = decimal.NewFromInt(1500)
	}
	express, err := decimal.NewFromString(cfg.ExpressCost)
	if err != nil {
		express = decimal.NewFromInt(3000)
	}
	return map[string]decimal.Decimal{
		"standard": standard,
		"express":  express,
	}
}

// PlaceOrder validates every line against the live catalogue, snapshots
// titles and prices into order items, and creates the order plus its
// payment record in one transaction. Prices always come from the
// database, never from the client.
func (s *checkoutServiceImpl) PlaceOrder(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, errs.Validation("items", "cart is empty")
	}

	physicalPresent := false
	subtotal := decimal.Zero
	orderItems := make([]model.OrderItem, 0, len(req.Items))

	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, errs.Validation("quantity", "quantity must be at least 1")
		}
		book, err := s.bookRepo.FindByID(ctx, line.BookID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Validation("items", fmt.Sprintf("book %d not found", line.BookID))
		}
		if err != nil {
			return nil, fmt.Errorf("find book %d: %w", line.BookID, err)
		}
		if !book.IsActive {
			return nil, errs.Validation("items", fmt.Sprintf("%q is no longer available", book.Title))
		}
		if book.Format.IsPhysical() && book.InventoryEnabled && line.Quantity > book.StockQuantity {
			return nil, errs.Validation("items", fmt.Sprintf("%q is out of stock", book.Title))
		}
		if book.Format.IsPhysical() {
			physicalPresent = true
		}
		subtotal = subtotal.Add(book.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		orderItems = append(orderItems, model.OrderItem{
			BookID:    book.ID,
			Title:     book.Title,
			Format:    book.Format,
			UnitPrice: book.Price,
			Quantity:  line.Quantity,
		})
	}

	shippingCost := decimal.Zero
	if physicalPresent {
		if !req.ShippingAddress.Complete() {
			return nil, errs.Validation("shipping_address", "complete shipping address required for physical items")
		}
		rate, ok := s.shippingRates[strings.ToLower(req.ShippingMethod)]
		if !ok {
			return nil, errs.Validation("shipping_method", "unknown shipping method")
		}
		shippingCost = rate
	}

	order := &model.Order{
		OrderNumber:     orderNumber(),
		UserID:          userID,
		Items:           orderItems,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		TotalAmount:     subtotal.Add(shippingCost),
		Status:          model.OrderStatusPending,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingMethod:  req.ShippingMethod,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		Email:           req.Email,
		Phone:           req.Phone,
		Notes:           req.Notes,
	}

	var bankTransferID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}

		if req.PaymentMethod == model.MethodBankTransfer {
			transfer := &model.BankTransferPayment{
				ID:                   uuid.NewString(),
				OrderID:              order.ID,
				TransactionReference: "BT-" + order.OrderNumber,
				Amount:               order.TotalAmount,
				Status:               model.BankTransferPending,
			}
			if err := s.paymentRepo.CreateBankTransfer(ctx, tx, transfer); err != nil {
				return fmt.Errorf("store bank transfer: %w", err)
			}
			bankTransferID = transfer.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutResponse{
		Success:        true,
		Order:          OrderToView(order),
		BankTransferID: bankTransferID,
	}, nil
}

func orderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// OrderToView flattens an order and its snapshot items into the wire
// shape shared with clients.
func OrderToView(order *model.Order) dto.OrderView {
	items := make([]dto.OrderItemView, len(order.Items))
	for i, item := range order.Items {
		items[i] = dto.OrderItemView{
			BookID:    item.BookID,
			Title:     item.Title,
			Format:    item.Format,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return dto.OrderView{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		PaymentMethod:  order.PaymentMethod,
		ShippingMethod: order.ShippingMethod,
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		TotalAmount:    order.TotalAmount,
		Items:          items,
		CreatedAt:      order.CreatedAt,
	}
}
