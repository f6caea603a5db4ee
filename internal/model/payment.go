package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GatewayStatus string

const (
	GatewayPending    GatewayStatus = "pending"
	GatewaySuccessful GatewayStatus = "successful"
	GatewayFailed     GatewayStatus = "failed"
)

// GatewayPayment is the short-lived record backing an inline gateway
// charge, resolved synchronously via the gateway callback.
type GatewayPayment struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null"`
	TxRef     string          `gorm:"size:64;uniqueIndex;not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status    GatewayStatus   `gorm:"size:20;index;not null;default:'pending'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BankTransferStatus string

const (
	BankTransferPending          BankTransferStatus = "pending"
	BankTransferAwaitingApproval BankTransferStatus = "awaiting_approval"
	BankTransferVerified         BankTransferStatus = "verified"
	BankTransferRejected         BankTransferStatus = "rejected"
	BankTransferFailed           BankTransferStatus = "failed"
)

// Rank orders bank-transfer statuses so transitions only ever move
// forward: pending < awaiting_approval < {verified, rejected, failed}.
func (s BankTransferStatus) Rank() int {
	switch s {
	case BankTransferPending:
		return 0
	case BankTransferAwaitingApproval:
		return 1
	case BankTransferVerified, BankTransferRejected, BankTransferFailed:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether no further transition can occur.
func (s BankTransferStatus) Terminal() bool {
	switch s {
	case BankTransferVerified, BankTransferRejected, BankTransferFailed:
		return true
	}
	return false
}

// BankTransferPayment is the human-reviewed rail. Unlike a gateway
// session it never expires; the shopper may return to it at any time.
type BankTransferPayment struct {
	ID                   string             `gorm:"primaryKey;size:36"` // uuid
	OrderID              uint               `gorm:"index;not null"`
	TransactionReference string             `gorm:"size:64;uniqueIndex;not null"`
	Amount               decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Status               BankTransferStatus `gorm:"size:20;index;not null;default:'pending'"`
	Proofs               []ProofOfPayment   `gorm:"foreignKey:BankTransferID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProofOfPayment rows are append-only; uploading one never changes the
// parent transfer's status.
type ProofOfPayment struct {
	ID             string    `gorm:"primaryKey;size:36"` // uuid
	BankTransferID string    `gorm:"size:36;index;not null"`
	ImageURL       string    `gorm:"size:512;not null"`
	UploadedAt     time.Time `gorm:"not null"`
}
