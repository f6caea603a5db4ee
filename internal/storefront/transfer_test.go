package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
)

type stubTransferAPI struct {
	calls int32
	fn    func(items []dto.GuestItem) ([]dto.CartLine, error)
}

func (s *stubTransferAPI) TransferGuestCart(ctx context.Context, items []dto.GuestItem) ([]dto.CartLine, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(items)
}

func newTransferFixture(t *testing.T, api *stubTransferAPI) (*GuestCartTransfer, *Store, *Store) {
	t.Helper()
	guest := NewGuestStore(NewMemoryStorage(), zap.NewNop())
	user := NewUserStore(&stubCartAPI{}, zap.NewNop())
	return NewGuestCartTransfer(api, guest, user, zap.NewNop()), guest, user
}

func TestTransferMergesGuestIntoUserCart(t *testing.T) {
	api := &stubTransferAPI{
		fn: func(items []dto.GuestItem) ([]dto.CartLine, error) {
			require.Len(t, items, 1)
			require.Equal(t, 2, items[0].Quantity)
			// user already held 3 of the same book
			return []dto.CartLine{serverLine(items[0].BookID, items[0].Quantity+3)}, nil
		},
	}
	transfer, guest, user := newTransferFixture(t, api)
	require.NoError(t, guest.Add(context.Background(), ebookItem(1, 2, "10.00")))

	require.NoError(t, transfer.OnAuthenticated(context.Background()))

	items := user.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Empty(t, guest.Items(), "guest cart cleared after the hand-off")
	assert.True(t, transfer.Done())
}

func TestTransferRunsOnce(t *testing.T) {
	api := &stubTransferAPI{
		fn: func(items []dto.GuestItem) ([]dto.CartLine, error) {
			return []dto.CartLine{serverLine(1, 2)}, nil
		},
	}
	transfer, guest, _ := newTransferFixture(t, api)
	require.NoError(t, guest.Add(context.Background(), ebookItem(1, 2, "10.00")))

	require.NoError(t, transfer.OnAuthenticated(context.Background()))
	require.NoError(t, transfer.OnAuthenticated(context.Background()))
	require.NoError(t, transfer.TransferPayload(context.Background(), []dto.GuestItem{{BookID: 1, Quantity: 2}}))

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls))
}

func TestTransferConcurrentTriggersSendOneRequest(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &stubTransferAPI{
		fn: func(items []dto.GuestItem) ([]dto.CartLine, error) {
			close(entered)
			<-release
			return []dto.CartLine{serverLine(1, 2)}, nil
		},
	}
	transfer, guest, _ := newTransferFixture(t, api)
	require.NoError(t, guest.Add(context.Background(), ebookItem(1, 2, "10.00")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = transfer.OnAuthenticated(context.Background())
	}()
	<-entered

	// second trigger while the first is still in flight
	require.NoError(t, transfer.TransferPayload(context.Background(), []dto.GuestItem{{BookID: 1, Quantity: 2}}))

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls))
}

func TestTransferFailureKeepsGuestCartAndAllowsRetry(t *testing.T) {
	fail := true
	api := &stubTransferAPI{
		fn: func(items []dto.GuestItem) ([]dto.CartLine, error) {
			if fail {
				return nil, errors.New("connection reset")
			}
			return []dto.CartLine{serverLine(1, 2)}, nil
		},
	}
	transfer, guest, user := newTransferFixture(t, api)
	require.NoError(t, guest.Add(context.Background(), ebookItem(1, 2, "10.00")))

	require.Error(t, transfer.OnAuthenticated(context.Background()))
	assert.False(t, transfer.Done())
	assert.Len(t, guest.Items(), 1, "guest cart kept for the retry")

	fail = false
	require.NoError(t, transfer.OnAuthenticated(context.Background()))
	assert.True(t, transfer.Done())
	assert.Empty(t, guest.Items())
	assert.Len(t, user.Items(), 1)
}

func TestTransferEmptyGuestCartCompletesWithoutRequest(t *testing.T) {
	api := &stubTransferAPI{
		fn: func(items []dto.GuestItem) ([]dto.CartLine, error) {
			t.Fatal("no request expected for an empty guest cart")
			return nil, nil
		},
	}
	transfer, _, _ := newTransferFixture(t, api)

	require.NoError(t, transfer.OnAuthenticated(context.Background()))
	assert.True(t, transfer.Done())
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.calls))
}
