package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"bookshop-commerce/internal/model"
)

type PaymentRepository interface {
	CreateGateway(ctx context.Context, payment *model.GatewayPayment) error
	FindGatewayByTxRef(ctx context.Context, txRef string) (*model.GatewayPayment, error)
	MarkGatewayStatus(ctx context.Context, tx *gorm.DB, txRef string, status model.GatewayStatus) error

	CreateBankTransfer(ctx context.Context, tx *gorm.DB, payment *model.BankTransferPayment) error
	FindBankTransferByID(ctx context.Context, id string) (*model.BankTransferPayment, error)
	FindBankTransferByOrderID(ctx context.Context, orderID uint) (*model.BankTransferPayment, error)
	AppendProof(ctx context.Context, proof *model.ProofOfPayment) error
	AdvanceBankTransferStatus(ctx context.Context, tx *gorm.DB, id string, to model.BankTransferStatus) (bool, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) CreateGateway(ctx context.Context, payment *model.GatewayPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindGatewayByTxRef(ctx context.Context, txRef string) (*model.GatewayPayment, error) {
	var payment model.GatewayPayment
	err := r.db.WithContext(ctx).
		Where("tx_ref = ?", txRef).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkGatewayStatus only moves a pending record; a resolved gateway
// payment never changes again.
func (r *paymentRepoImpl) MarkGatewayStatus(ctx context.Context, tx *gorm.DB, txRef string, status model.GatewayStatus) error {
	return tx.WithContext(ctx).Model(&model.GatewayPayment{}).
		Where("tx_ref = ? AND status = ?", txRef, model.GatewayPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *paymentRepoImpl) CreateBankTransfer(ctx context.Context, tx *gorm.DB, payment *model.BankTransferPayment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindBankTransferByID(ctx context.Context, id string) (*model.BankTransferPayment, error) {
	var payment model.BankTransferPayment
	err := r.db.WithContext(ctx).
		Preload("Proofs", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at asc")
		}).
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindBankTransferByOrderID(ctx context.Context, orderID uint) (*model.BankTransferPayment, error) {
	var payment model.BankTransferPayment
	err := r.db.WithContext(ctx).
		Preload("Proofs").
		Where("order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) AppendProof(ctx context.Context, proof *model.ProofOfPayment) error {
	return r.db.WithContext(ctx).Create(proof).Error
}

// AdvanceBankTransferStatus applies a forward-only transition keyed on
// status rank; a stale or backward update affects zero rows and is
// reported, not applied.
func (r *paymentRepoImpl) AdvanceBankTransferStatus(ctx context.Context, tx *gorm.DB, id string, to model.BankTransferStatus) (bool, error) {
	var from []string
	for _, s := range []model.BankTransferStatus{
		model.BankTransferPending,
		model.BankTransferAwaitingApproval,
	} {
		if s.Rank() < to.Rank() {
			from = append(from, string(s))
		}
	}
	if len(from) == 0 {
		return false, nil
	}

	result := tx.WithContext(ctx).Model(&model.BankTransferPayment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
