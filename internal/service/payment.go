package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookshop-commerce/internal/client"
	"bookshop-commerce/internal/config"
	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
	"bookshop-commerce/internal/repository"
)

type PaymentService interface {
	PrepareInline(ctx context.Context, userID string, orderID uint) (*dto.InlineParams, error)
	CompletePayment(ctx context.Context, userID string, req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error)

	GetBankTransfer(ctx context.Context, userID string, id string) (*dto.BankTransferDetailResponse, error)
	UploadProof(ctx context.Context, userID string, orderID uint, imageURL string) (*dto.ProofView, error)
	ReviewBankTransfer(ctx context.Context, id string, to model.BankTransferStatus) (*dto.BankTransferView, error)
}

type paymentServiceImpl struct {
	db            *gorm.DB
	gatewayClient client.GatewayClient
	gatewayCfg    *config.Gateway
	bankCfg       *config.BankAccount
	orderRepo     repository.OrderRepository
	paymentRepo   repository.PaymentRepository
	cartRepo      repository.CartRepository
	libraryRepo   repository.LibraryRepository
	logger        *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	gatewayClient client.GatewayClient,
	gatewayCfg *config.Gateway,
	bankCfg *config.BankAccount,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	cartRepo repository.CartRepository,
	libraryRepo repository.LibraryRepository,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:            db,
		gatewayClient: gatewayClient,
		gatewayCfg:    gatewayCfg,
		bankCfg:       bankCfg,
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		cartRepo:      cartRepo,
		libraryRepo:   libraryRepo,
		logger:        logger,
	}
}

func (s *paymentServiceImpl) PrepareInline(ctx context.Context, userID string, orderID uint) (*dto.InlineParams, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("order_id", "order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, errs.Auth("order belongs to another account")
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, errs.Payment("order is already paid")
	}

	payment := &model.GatewayPayment{
		OrderID: order.ID,
		TxRef:   "TX-" + uuid.NewString(),
		Amount:  order.TotalAmount,
		Status:  model.GatewayPending,
	}
	if err := s.paymentRepo.CreateGateway(ctx, payment); err != nil {
		return nil, fmt.Errorf("store gateway payment: %w", err)
	}

	initResp, err := s.gatewayClient.InitializeTransaction(ctx, &client.InitializeRequest{
		Reference: payment.TxRef,
		Amount:    payment.Amount,
		Currency:  s.gatewayCfg.Currency,
		Email:     order.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway initialize: %w", err)
	}

	return &dto.InlineParams{
		Reference:    payment.TxRef,
		Amount:       payment.Amount,
		Currency:     s.gatewayCfg.Currency,
		Email:        order.Email,
		AccessCode:   initResp.AccessCode,
		AuthorizeURL: initResp.AuthorizeURL,
	}, nil
}

// CompletePayment verifies the callback reference with the gateway and
// finalizes the order. The response, not an error, carries a declined
// outcome so the client can route the shopper back to an intact cart.
func (s *paymentServiceImpl) CompletePayment(ctx context.Context, userID string, req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
	payment, err := s.paymentRepo.FindGatewayByTxRef(ctx, req.TransactionReference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("transaction_reference", "unknown transaction reference")
	}
	if err != nil {
		return nil, fmt.Errorf("find gateway payment: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, errs.Auth("order belongs to another account")
	}

	// duplicate completion: acknowledge without re-clearing
	if payment.Status == model.GatewaySuccessful {
		return &dto.CompletePaymentResponse{
			Success:     true,
			CartCleared: true,
			OrderID:     order.ID,
		}, nil
	}

	verify, err := s.gatewayClient.VerifyTransaction(ctx, payment.TxRef)
	if err != nil {
		return nil, errs.Payment(fmt.Sprintf("verification failed: %v", err))
	}

	if verify.Status != "success" || !verify.Amount.Equal(order.TotalAmount) {
		s.logger.Warn("gateway payment declined",
			zap.String("tx_ref", payment.TxRef),
			zap.String("gateway_status", verify.Status))

		if err := s.markGatewayFailed(ctx, payment, order); err != nil {
			return nil, err
		}
		return &dto.CompletePaymentResponse{
			Success:     false,
			CartCleared: false,
			OrderID:     order.ID,
			Message:     "payment was not successful",
		}, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.MarkGatewayStatus(ctx, tx, payment.TxRef, model.GatewaySuccessful); err != nil {
			return fmt.Errorf("mark gateway payment: %w", err)
		}
		return s.finalizeOrder(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	return &dto.CompletePaymentResponse{
		Success:     true,
		CartCleared: true,
		OrderID:     order.ID,
	}, nil
}

func (s *paymentServiceImpl) markGatewayFailed(ctx context.Context, payment *model.GatewayPayment, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.MarkGatewayStatus(ctx, tx, payment.TxRef, model.GatewayFailed); err != nil {
			return fmt.Errorf("mark gateway payment failed: %w", err)
		}
		return nil
	})
}

// finalizeOrder is the single success path shared by both rails: mark
// the order paid, clear the owning cart, unlock purchased ebooks.
func (s *paymentServiceImpl) finalizeOrder(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	paid, err := s.orderRepo.MarkPaid(ctx, tx, order.ID)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if err := s.cartRepo.ClearItems(ctx, tx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	for _, item := range paid.Items {
		if !item.Format.IsEbook() {
			continue
		}
		err := s.libraryRepo.Grant(ctx, tx, &model.LibraryEntry{
			UserID:  order.UserID,
			BookID:  item.BookID,
			OrderID: order.ID,
		})
		if err != nil {
			return fmt.Errorf("unlock ebook %d: %w", item.BookID, err)
		}
	}

	return nil
}

func (s *paymentServiceImpl) GetBankTransfer(ctx context.Context, userID string, id string) (*dto.BankTransferDetailResponse, error) {
	transfer, err := s.paymentRepo.FindBankTransferByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("id", "bank transfer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find bank transfer: %w", err)
	}

	order, err := s.orderRepo.FindByIDWithItems(ctx, transfer.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, errs.Auth("order belongs to another account")
	}

	return &dto.BankTransferDetailResponse{
		BankTransfer: bankTransferToView(transfer),
		BankAccount: dto.BankAccountView{
			AccountName:   s.bankCfg.AccountName,
			AccountNumber: s.bankCfg.AccountNumber,
			BankName:      s.bankCfg.BankName,
		},
		Order:  OrderToView(order),
		Proofs: proofsToViews(transfer.Proofs),
	}, nil
}

func (s *paymentServiceImpl) UploadProof(ctx context.Context, userID string, orderID uint, imageURL string) (*dto.ProofView, error) {
	transfer, err := s.paymentRepo.FindBankTransferByOrderID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("order_id", "no bank transfer for this order")
	}
	if err != nil {
		return nil, fmt.Errorf("find bank transfer: %w", err)
	}

	order, err := s.orderRepo.FindByID(ctx, transfer.OrderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.UserID != userID {
		return nil, errs.Auth("order belongs to another account")
	}
	if transfer.Status.Terminal() {
		return nil, errs.Payment("payment already resolved")
	}

	proof := &model.ProofOfPayment{
		ID:             uuid.NewString(),
		BankTransferID: transfer.ID,
		ImageURL:       imageURL,
		UploadedAt:     nowUTC(),
	}
	if err := s.paymentRepo.AppendProof(ctx, proof); err != nil {
		return nil, fmt.Errorf("store proof: %w", err)
	}

	return &dto.ProofView{
		ID:         proof.ID,
		ImageURL:   proof.ImageURL,
		UploadedAt: proof.UploadedAt,
	}, nil
}

// ReviewBankTransfer applies an administrative decision. Backward
// transitions affect no rows; verification finalizes the order the
// same way a successful gateway callback does.
func (s *paymentServiceImpl) ReviewBankTransfer(ctx context.Context, id string, to model.BankTransferStatus) (*dto.BankTransferView, error) {
	transfer, err := s.paymentRepo.FindBankTransferByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("id", "bank transfer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find bank transfer: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		advanced, err := s.paymentRepo.AdvanceBankTransferStatus(ctx, tx, id, to)
		if err != nil {
			return fmt.Errorf("advance bank transfer: %w", err)
		}
		if !advanced {
			return nil
		}

		switch to {
		case model.BankTransferVerified:
			order, err := s.orderRepo.FindByIDWithItems(ctx, transfer.OrderID)
			if err != nil {
				return fmt.Errorf("find order: %w", err)
			}
			return s.finalizeOrder(ctx, tx, order)
		case model.BankTransferRejected, model.BankTransferFailed:
			if err := s.orderRepo.MarkPaymentFailed(ctx, transfer.OrderID); err != nil {
				return fmt.Errorf("mark payment failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.paymentRepo.FindBankTransferByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload bank transfer: %w", err)
	}
	view := bankTransferToView(updated)
	return &view, nil
}

func bankTransferToView(t *model.BankTransferPayment) dto.BankTransferView {
	return dto.BankTransferView{
		ID:                   t.ID,
		OrderID:              t.OrderID,
		TransactionReference: t.TransactionReference,
		Amount:               t.Amount,
		Status:               t.Status,
		CreatedAt:            t.CreatedAt,
	}
}

func proofsToViews(proofs []model.ProofOfPayment) []dto.ProofView {
	views := make([]dto.ProofView, len(proofs))
	for i, p := range proofs {
		views[i] = dto.ProofView{
			ID:         p.ID,
			ImageURL:   p.ImageURL,
			UploadedAt: p.UploadedAt,
		}
	}
	return views
}
