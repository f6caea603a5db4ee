package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
)

func testAddress() model.Address {
	return model.Address{Line1: "12 Marina Road", City: "Lagos", State: "Lagos", Country: "NG"}
}

func checkoutReq(items []dto.GuestItem) *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		Items:           items,
		ShippingAddress: testAddress(),
		ShippingMethod:  "standard",
		PaymentMethod:   model.MethodGateway,
		Email:           "buyer@example.com",
	}
}

func TestPlaceOrderSnapshotsPricesFromDB(t *testing.T) {
	db := newTestDB(t)
	book := seedPhysical(t, db, "24.00", 10)
	svc := newCheckoutService(db)

	resp, err := svc.PlaceOrder(context.Background(), "user-1", checkoutReq(guestItems(book.ID, 2)))
	require.NoError(t, err)

	require.True(t, resp.Success)
	assert.True(t, resp.Order.Subtotal.Equal(mustDec(t, "48.00")), "got %s", resp.Order.Subtotal)
	assert.True(t, resp.Order.ShippingCost.Equal(mustDec(t, "1500")))
	assert.True(t, resp.Order.TotalAmount.Equal(mustDec(t, "1548.00")))
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, book.Title, resp.Order.Items[0].Title)
	assert.Equal(t, model.OrderStatusPending, resp.Order.Status)
	assert.Equal(t, model.PaymentStatusPending, resp.Order.PaymentStatus)

	// snapshot is immune to later catalogue edits
	require.NoError(t, db.Model(book).Update("price", mustDec(t, "99.00")).Error)
	var item model.OrderItem
	require.NoError(t, db.First(&item, "order_id = ?", resp.Order.ID).Error)
	assert.True(t, item.UnitPrice.Equal(mustDec(t, "24.00")))
}

func TestPlaceOrderShippingRules(t *testing.T) {
	t.Run("ebook-only order ships free without an address", func(t *testing.T) {
		db := newTestDB(t)
		book := seedEbook(t, db, "10.00")
		svc := newCheckoutService(db)

		req := checkoutReq(guestItems(book.ID, 1))
		req.ShippingAddress = model.Address{}
		req.ShippingMethod = ""

		resp, err := svc.PlaceOrder(context.Background(), "user-1", req)
		require.NoError(t, err)
		assert.True(t, resp.Order.ShippingCost.IsZero())
		assert.True(t, resp.Order.TotalAmount.Equal(mustDec(t, "10.00")))
	})

	t.Run("physical order without address rejected", func(t *testing.T) {
		db := newTestDB(t)
		book := seedPhysical(t, db, "20.00", 5)
		svc := newCheckoutService(db)

		req := checkoutReq(guestItems(book.ID, 1))
		req.ShippingAddress.Country = ""

		_, err := svc.PlaceOrder(context.Background(), "user-1", req)
		assert.Equal(t, "shipping_address", errs.FieldOf(err))
	})

	t.Run("express rate applied", func(t *testing.T) {
		db := newTestDB(t)
		book := seedPhysical(t, db, "20.00", 5)
		svc := newCheckoutService(db)

		req := checkoutReq(guestItems(book.ID, 1))
		req.ShippingMethod = "express"

		resp, err := svc.PlaceOrder(context.Background(), "user-1", req)
		require.NoError(t, err)
		assert.True(t, resp.Order.ShippingCost.Equal(mustDec(t, "3000")))
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		db := newTestDB(t)
		book := seedPhysical(t, db, "20.00", 5)
		svc := newCheckoutService(db)

		req := checkoutReq(guestItems(book.ID, 1))
		req.ShippingMethod = "drone"

		_, err := svc.PlaceOrder(context.Background(), "user-1", req)
		assert.Equal(t, "shipping_method", errs.FieldOf(err))
	})
}

func TestPlaceOrderRejectsBadLines(t *testing.T) {
	db := newTestDB(t)
	svc := newCheckoutService(db)
	ctx := context.Background()

	assertNoOrders := func(t *testing.T) {
		t.Helper()
		var count int64
		require.NoError(t, db.Model(&model.Order{}).Count(&count).Error)
		assert.Zero(t, count, "a rejected checkout must not leave an order behind")
	}

	t.Run("empty cart", func(t *testing.T) {
		_, err := svc.PlaceOrder(ctx, "user-1", checkoutReq(nil))
		assert.Equal(t, "items", errs.FieldOf(err))
		assertNoOrders(t)
	})

	t.Run("out of stock", func(t *testing.T) {
		book := seedPhysical(t, db, "20.00", 2)
		_, err := svc.PlaceOrder(ctx, "user-1", checkoutReq(guestItems(book.ID, 3)))
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		assertNoOrders(t)
	})

	t.Run("inactive book", func(t *testing.T) {
		book := seedEbook(t, db, "10.00")
		require.NoError(t, db.Model(book).Update("is_active", false).Error)

		_, err := svc.PlaceOrder(ctx, "user-1", checkoutReq(guestItems(book.ID, 1)))
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
		assertNoOrders(t)
	})
}

func TestPlaceOrderBankTransferCreatesPaymentRecord(t *testing.T) {
	db := newTestDB(t)
	book := seedEbook(t, db, "10.00")
	svc := newCheckoutService(db)

	req := checkoutReq(guestItems(book.ID, 1))
	req.PaymentMethod = model.MethodBankTransfer

	resp, err := svc.PlaceOrder(context.Background(), "user-1", req)
	require.NoError(t, err)
	require.NotEmpty(t, resp.BankTransferID)

	var transfer model.BankTransferPayment
	require.NoError(t, db.First(&transfer, "id = ?", resp.BankTransferID).Error)
	assert.Equal(t, resp.Order.ID, transfer.OrderID)
	assert.Equal(t, "BT-"+resp.Order.OrderNumber, transfer.TransactionReference)
	assert.Equal(t, model.BankTransferPending, transfer.Status)
	assert.True(t, transfer.Amount.Equal(resp.Order.TotalAmount))
}

func TestPlaceOrderGatewayHasNoBankTransfer(t *testing.T) {
	db := newTestDB(t)
	book := seedEbook(t, db, "10.00")
	svc := newCheckoutService(db)

	resp, err := svc.PlaceOrder(context.Background(), "user-1", checkoutReq(guestItems(book.ID, 1)))
	require.NoError(t, err)
	assert.Empty(t, resp.BankTransferID)
}
