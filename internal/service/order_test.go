package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshop-commerce/internal/repository"
)

func TestListUserOrders(t *testing.T) {
	db := newTestDB(t)
	checkout := newCheckoutService(db)
	orders := NewOrderService(repository.NewOrderRepository(db))
	book := seedEbook(t, db, "10.00")
	ctx := context.Background()

	first, err := checkout.PlaceOrder(ctx, "user-1", checkoutReq(guestItems(book.ID, 1)))
	require.NoError(t, err)
	second, err := checkout.PlaceOrder(ctx, "user-1", checkoutReq(guestItems(book.ID, 2)))
	require.NoError(t, err)
	_, err = checkout.PlaceOrder(ctx, "user-2", checkoutReq(guestItems(book.ID, 1)))
	require.NoError(t, err)

	views, err := orders.ListUserOrders(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, views, 2, "only the caller's orders")
	numbers := []string{views[0].OrderNumber, views[1].OrderNumber}
	assert.Contains(t, numbers, first.Order.OrderNumber)
	assert.Contains(t, numbers, second.Order.OrderNumber)
	require.Len(t, views[0].Items, 1)
	assert.NotEmpty(t, views[0].Items[0].Title, "snapshot items come preloaded")
}

func TestListUserOrdersEmpty(t *testing.T) {
	db := newTestDB(t)
	orders := NewOrderService(repository.NewOrderRepository(db))

	views, err := orders.ListUserOrders(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, views)
}
