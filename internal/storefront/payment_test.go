package storefront

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
)

type stubPaymentAPI struct {
	prepare  func(orderID uint) (*dto.InlineParams, error)
	complete func(req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error)
}

func (s *stubPaymentAPI) PrepareInlinePayment(ctx context.Context, orderID uint) (*dto.InlineParams, error) {
	return s.prepare(orderID)
}

func (s *stubPaymentAPI) CompletePayment(ctx context.Context, req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
	return s.complete(req)
}

type stubBankTransferAPI struct {
	get    func(id string) (*dto.BankTransferDetailResponse, error)
	upload func(orderID uint, filename string) (*dto.ProofView, error)
}

func (s *stubBankTransferAPI) GetBankTransfer(ctx context.Context, id string) (*dto.BankTransferDetailResponse, error) {
	return s.get(id)
}

func (s *stubBankTransferAPI) UploadProof(ctx context.Context, orderID uint, filename string, file io.Reader) (*dto.ProofView, error) {
	return s.upload(orderID, filename)
}

func cartWithOneLine(t *testing.T) *Store {
	t.Helper()
	cart := NewGuestStore(NewMemoryStorage(), zap.NewNop())
	require.NoError(t, cart.Add(context.Background(), ebookItem(1, 2, "10.00")))
	return cart
}

func detailWith(status model.BankTransferStatus, proofs ...dto.ProofView) *dto.BankTransferDetailResponse {
	return &dto.BankTransferDetailResponse{
		BankTransfer: dto.BankTransferView{
			ID: "bt-1", OrderID: 7, TransactionReference: "BT-ORD-1",
			Amount: dec("20.00"), Status: status,
		},
		Proofs: proofs,
	}
}

func TestCompleteGatewayClearsCartOnConfirmation(t *testing.T) {
	api := &stubPaymentAPI{
		complete: func(req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
			return &dto.CompletePaymentResponse{Success: true, CartCleared: true, OrderID: 7}, nil
		},
	}
	cart := cartWithOneLine(t)
	r := NewReconciler(api, cart, zap.NewNop())

	resp, err := r.CompleteGateway(context.Background(), "TX-1", "success", nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, cart.Items())
}

func TestCompleteGatewayDeclinedLeavesCartIntact(t *testing.T) {
	api := &stubPaymentAPI{
		complete: func(req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
			return &dto.CompletePaymentResponse{Success: false, CartCleared: false, Message: "declined"}, nil
		},
	}
	cart := cartWithOneLine(t)
	before := cart.Items()
	r := NewReconciler(api, cart, zap.NewNop())

	resp, err := r.CompleteGateway(context.Background(), "TX-1", "failed", nil)
	require.NoError(t, err, "a declined payment is an outcome, not an error")
	assert.False(t, resp.Success)
	assert.Equal(t, before, cart.Items())
}

func TestCompleteGatewayErrorLeavesCartIntact(t *testing.T) {
	api := &stubPaymentAPI{
		complete: func(req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error) {
			return nil, errs.Network(assert.AnError)
		},
	}
	cart := cartWithOneLine(t)
	before := cart.Items()
	r := NewReconciler(api, cart, zap.NewNop())

	_, err := r.CompleteGateway(context.Background(), "TX-1", "success", nil)
	require.Error(t, err)
	assert.Equal(t, before, cart.Items())
}

func TestBankTransferStatusNeverRegresses(t *testing.T) {
	responses := []model.BankTransferStatus{
		model.BankTransferAwaitingApproval,
		model.BankTransferPending, // stale replica read
	}
	i := 0
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			resp := detailWith(responses[i])
			i++
			return resp, nil
		},
	}
	flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())

	_, err := flow.Refresh(context.Background(), "bt-1")
	require.NoError(t, err)
	require.Equal(t, model.BankTransferAwaitingApproval, flow.Status())

	_, err = flow.Refresh(context.Background(), "bt-1")
	require.NoError(t, err)
	assert.Equal(t, model.BankTransferAwaitingApproval, flow.Status(),
		"older server state must not roll the status back")
}

func TestBankTransferVerifiedClearsCart(t *testing.T) {
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			return detailWith(model.BankTransferVerified, dto.ProofView{ID: "p1"}), nil
		},
	}
	cart := cartWithOneLine(t)
	flow := NewBankTransferFlow(api, cart, zap.NewNop())

	_, err := flow.Refresh(context.Background(), "bt-1")
	require.NoError(t, err)
	assert.Equal(t, model.BankTransferVerified, flow.Status())
	assert.Empty(t, cart.Items())
}

func TestBankTransferRejectedKeepsCart(t *testing.T) {
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			return detailWith(model.BankTransferRejected), nil
		},
	}
	cart := cartWithOneLine(t)
	flow := NewBankTransferFlow(api, cart, zap.NewNop())

	_, err := flow.Refresh(context.Background(), "bt-1")
	require.NoError(t, err)
	assert.Len(t, cart.Items(), 1, "a rejected transfer is not a confirmed payment")
}

func TestUploadProof(t *testing.T) {
	t.Run("appends and enables completion", func(t *testing.T) {
		api := &stubBankTransferAPI{
			get: func(id string) (*dto.BankTransferDetailResponse, error) {
				return detailWith(model.BankTransferPending), nil
			},
			upload: func(orderID uint, filename string) (*dto.ProofView, error) {
				return &dto.ProofView{ID: "p1", ImageURL: "/uploads/p1.png"}, nil
			},
		}
		flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())
		_, err := flow.Refresh(context.Background(), "bt-1")
		require.NoError(t, err)
		assert.False(t, flow.CanCompleteOrder(), "no proof yet")

		_, err = flow.UploadProof(context.Background(), 7, "receipt.png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.Len(t, flow.Proofs(), 1)
		assert.True(t, flow.CanCompleteOrder())
	})

	t.Run("rejected after settlement", func(t *testing.T) {
		api := &stubBankTransferAPI{
			get: func(id string) (*dto.BankTransferDetailResponse, error) {
				return detailWith(model.BankTransferVerified), nil
			},
		}
		flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())
		_, err := flow.Refresh(context.Background(), "bt-1")
		require.NoError(t, err)

		_, err = flow.UploadProof(context.Background(), 7, "receipt.png", strings.NewReader("png"))
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})
}

func TestCanCompleteOrderBlockedWhenRejected(t *testing.T) {
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			return detailWith(model.BankTransferRejected, dto.ProofView{ID: "p1"}), nil
		},
	}
	flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())
	_, err := flow.Refresh(context.Background(), "bt-1")
	require.NoError(t, err)

	assert.False(t, flow.CanCompleteOrder())
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	statuses := []model.BankTransferStatus{
		model.BankTransferPending,
		model.BankTransferAwaitingApproval,
		model.BankTransferVerified,
	}
	calls := make(chan model.BankTransferStatus, len(statuses)+4)
	i := 0
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			status := statuses[i]
			if i < len(statuses)-1 {
				i++
			}
			calls <- status
			return detailWith(status), nil
		},
	}
	flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())
	poller := NewPoller(flow, zap.NewNop())
	poller.SetInterval(5 * time.Millisecond)
	defer poller.StopAll()

	poller.Start(context.Background(), "bt-1")

	require.Eventually(t, func() bool {
		return flow.Status() == model.BankTransferVerified
	}, time.Second, 5*time.Millisecond)

	// drain, then confirm polling has stopped
	time.Sleep(30 * time.Millisecond)
	for len(calls) > 0 {
		<-calls
	}
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, calls, "poller must stop once the transfer settles")
}

func TestPollerRestartKeepsPolling(t *testing.T) {
	var refreshes atomic.Int64
	api := &stubBankTransferAPI{
		get: func(id string) (*dto.BankTransferDetailResponse, error) {
			refreshes.Add(1)
			return detailWith(model.BankTransferPending), nil
		},
	}
	flow := NewBankTransferFlow(api, cartWithOneLine(t), zap.NewNop())
	poller := NewPoller(flow, zap.NewNop())
	poller.SetInterval(5 * time.Millisecond)
	defer poller.StopAll()

	// A view remount starts the same transfer again. The old loop's
	// teardown must not take the new loop with it.
	poller.Start(context.Background(), "bt-1")
	poller.Start(context.Background(), "bt-1")

	require.Eventually(t, func() bool {
		return refreshes.Load() >= 5
	}, time.Second, 5*time.Millisecond, "polling must continue after a restart")

	poller.Stop("bt-1")
	time.Sleep(30 * time.Millisecond)
	settled := refreshes.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, refreshes.Load(), "stop must end the surviving loop")
}
