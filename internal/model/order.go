package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusFailed     OrderStatus = "failed"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"

	MethodGateway      PaymentMethod = "gateway"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type Address struct {
	Line1    string `gorm:"size:255" json:"line1"`
	Line2    string `gorm:"size:255" json:"line2"`
	City     string `gorm:"size:128" json:"city"`
	State    string `gorm:"size:128" json:"state"`
	Country  string `gorm:"size:128" json:"country"`
	Postcode string `gorm:"size:32" json:"postcode"`
}

func (a Address) Complete() bool {
	return a.Line1 != "" && a.City != "" && a.State != "" && a.Country != ""
}

// Order core fields are written once at checkout. Only Status and
// PaymentStatus move afterwards.
type Order struct {
	ID              uint            `gorm:"primaryKey"`
	OrderNumber     string          `gorm:"size:64;uniqueIndex;not null"`
	UserID          string          `gorm:"size:64;index;not null"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus     `gorm:"size:20;index;not null;default:'pending'"`
	PaymentStatus   PaymentStatus   `gorm:"size:20;index;not null;default:'pending'"`
	PaymentMethod   PaymentMethod   `gorm:"size:20;not null"`
	ShippingMethod  string          `gorm:"size:32"`
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_"`
	BillingAddress  Address         `gorm:"embedded;embeddedPrefix:bill_"`
	Email           string          `gorm:"size:255"`
	Phone           string          `gorm:"size:32"`
	Notes           string          `gorm:"size:1024"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem snapshots title, price and format at purchase time. Later
// catalogue edits never touch these rows.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null"`
	BookID    uint            `gorm:"index;not null"`
	Title     string          `gorm:"size:255;not null"`
	Format    BookFormat      `gorm:"size:16;not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity  int             `gorm:"not null"`
	CreatedAt time.Time
}
