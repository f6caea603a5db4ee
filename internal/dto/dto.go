package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"bookshop-commerce/internal/model"
)

// CartLine is the flattened cart item shape served over the wire: book
// fields are joined in fresh on every read so clients see current
// stock, price and activity.
type CartLine struct {
	BookID           uint             `json:"book_id"`
	Title            string           `json:"title"`
	Quantity         int              `json:"quantity"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	OriginalPrice    decimal.Decimal  `json:"original_price"`
	Format           model.BookFormat `json:"format"`
	StockQuantity    int              `json:"stock_quantity"`
	InventoryEnabled bool             `json:"inventory_enabled"`
	IsActive         bool             `json:"is_active"`
}

type CartResponse struct {
	Items []CartLine `json:"items"`
}

type AddItemRequest struct {
	BookID   uint `json:"book_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"` // 0 removes the line
}

type GuestItem struct {
	BookID   uint `json:"book_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,min=1"`
}

type TransferGuestRequest struct {
	CartItems []GuestItem `json:"cartItems" validate:"required,dive"`
}

type CheckoutRequest struct {
	Items           []GuestItem         `json:"items" validate:"required,min=1,dive"`
	ShippingAddress model.Address       `json:"shipping_address"`
	BillingAddress  model.Address       `json:"billing_address"`
	ShippingMethod  string              `json:"shipping_method"`
	PaymentMethod   model.PaymentMethod `json:"payment_method" validate:"required,oneof=gateway bank_transfer"`
	Email           string              `json:"email" validate:"required,email"`
	Phone           string              `json:"phone"`
	Notes           string              `json:"notes"`
}

type OrderItemView struct {
	BookID    uint             `json:"book_id"`
	Title     string           `json:"title"`
	Format    model.BookFormat `json:"format"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int              `json:"quantity"`
}

type OrderView struct {
	ID             uint                `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Status         model.OrderStatus   `json:"status"`
	PaymentStatus  model.PaymentStatus `json:"payment_status"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
	ShippingMethod string              `json:"shipping_method"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	ShippingCost   decimal.Decimal     `json:"shipping_cost"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Items          []OrderItemView     `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

type CheckoutResponse struct {
	Success        bool      `json:"success"`
	Order          OrderView `json:"order"`
	BankTransferID string    `json:"bank_transfer_id,omitempty"`
}

// InlineParams are the gateway-specific parameters the client hands to
// the gateway's own UI.
type InlineParams struct {
	Reference    string          `json:"reference"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Email        string          `json:"email"`
	AccessCode   string          `json:"access_code"`
	AuthorizeURL string          `json:"authorize_url"`
}

type PrepareInlineRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

type CompletePaymentRequest struct {
	TransactionReference string         `json:"transaction_reference" validate:"required"`
	Status               string         `json:"status"`
	VerificationData     map[string]any `json:"verification_data"`
}

type CompletePaymentResponse struct {
	Success     bool   `json:"success"`
	CartCleared bool   `json:"cart_cleared"`
	OrderID     uint   `json:"order_id"`
	Message     string `json:"message,omitempty"`
}

type ProofView struct {
	ID         string    `json:"id"`
	ImageURL   string    `json:"image_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type BankTransferView struct {
	ID                   string                   `json:"id"`
	OrderID              uint                     `json:"order_id"`
	TransactionReference string                   `json:"transaction_reference"`
	Amount               decimal.Decimal          `json:"amount"`
	Status               model.BankTransferStatus `json:"status"`
	CreatedAt            time.Time                `json:"created_at"`
}

type BankAccountView struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
}

type BankTransferDetailResponse struct {
	BankTransfer BankTransferView `json:"bankTransfer"`
	BankAccount  BankAccountView  `json:"bankAccount"`
	Order        OrderView        `json:"order"`
	Proofs       []ProofView      `json:"proofs"`
}

type ReviewBankTransferRequest struct {
	Status model.BankTransferStatus `json:"status" validate:"required,oneof=awaiting_approval verified rejected failed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Kind  string `json:"kind,omitempty"`
}
