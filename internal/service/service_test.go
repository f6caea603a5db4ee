package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bookshop-commerce/internal/client"
	"bookshop-commerce/internal/config"
	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/model"
	"bookshop-commerce/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Book{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.GatewayPayment{},
		&model.BankTransferPayment{},
		&model.ProofOfPayment{},
		&model.LibraryEntry{},
	))
	return db
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func seedBook(t *testing.T, db *gorm.DB, book model.Book) *model.Book {
	t.Helper()
	if book.Title == "" {
		book.Title = "Seeded Book"
	}
	book.IsActive = true
	require.NoError(t, db.Create(&book).Error)
	return &book
}

func seedEbook(t *testing.T, db *gorm.DB, price string) *model.Book {
	return seedBook(t, db, model.Book{
		Title:         "The Ebook",
		Author:        "A. Writer",
		Price:         mustDec(t, price),
		OriginalPrice: mustDec(t, price),
		Format:        model.FormatEbook,
	})
}

func seedPhysical(t *testing.T, db *gorm.DB, price string, stock int) *model.Book {
	return seedBook(t, db, model.Book{
		Title:            "The Paperback",
		Author:           "A. Writer",
		Price:            mustDec(t, price),
		OriginalPrice:    mustDec(t, price),
		Format:           model.FormatPhysical,
		StockQuantity:    stock,
		InventoryEnabled: true,
	})
}

func testShipping() *config.Shipping {
	return &config.Shipping{StandardCost: "1500", ExpressCost: "3000"}
}

func newCartService(db *gorm.DB) CartService {
	return NewCartService(db, repository.NewCartRepository(db), repository.NewBookRepository(db))
}

func newCheckoutService(db *gorm.DB) CheckoutService {
	return NewCheckoutService(db,
		repository.NewBookRepository(db),
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		testShipping())
}

// fakeGateway scripts the gateway's verification verdict.
type fakeGateway struct {
	initErr   error
	verify    *client.VerifyResponse
	verifyErr error
}

func (f *fakeGateway) InitializeTransaction(ctx context.Context, req *client.InitializeRequest) (*client.InitializeResponse, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &client.InitializeResponse{AccessCode: "ac_test", AuthorizeURL: "https://gateway.test/pay"}, nil
}

func (f *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*client.VerifyResponse, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	resp := *f.verify
	resp.Reference = reference
	return &resp, nil
}

func newPaymentService(db *gorm.DB, gateway client.GatewayClient) PaymentService {
	return NewPaymentService(db, gateway,
		&config.Gateway{Currency: "NGN"},
		&config.BankAccount{AccountName: "Bookshop Ltd", AccountNumber: "0123456789", BankName: "Test Bank"},
		repository.NewOrderRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewCartRepository(db),
		repository.NewLibraryRepository(db),
		zap.NewNop())
}

func guestItems(pairs ...uint) []dto.GuestItem {
	items := make([]dto.GuestItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, dto.GuestItem{BookID: pairs[i], Quantity: int(pairs[i+1])})
	}
	return items
}
