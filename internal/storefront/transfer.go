package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
)

// TransferAPI is the server operation that merges a guest cart into
// the authenticated user's cart.
type TransferAPI interface {
	TransferGuestCart(ctx context.Context, items []dto.GuestItem) ([]dto.CartLine, error)
}

// GuestCartTransfer moves a guest cart into a user cart exactly once
// per login, no matter how many triggers fire. Both the login event
// and an explicit payload route through the same guard, so a race
// between them still produces a single transfer.
type GuestCartTransfer struct {
	api    TransferAPI
	guest  *Store
	user   *Store
	logger *zap.Logger

	mu       sync.Mutex
	inFlight bool
	done     bool
}

func NewGuestCartTransfer(api TransferAPI, guest, user *Store, logger *zap.Logger) *GuestCartTransfer {
	return &GuestCartTransfer{
		api:    api,
		guest:  guest,
		user:   user,
		logger: logger,
	}
}

// Done reports whether a transfer has already completed this session.
func (t *GuestCartTransfer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// OnAuthenticated runs after login, sending the locally held guest
// lines. An empty guest cart still counts as a completed transfer so
// later triggers stay quiet.
func (t *GuestCartTransfer) OnAuthenticated(ctx context.Context) error {
	return t.run(ctx, toGuestItems(t.guest.Items()))
}

// TransferPayload sends an explicitly supplied guest cart, e.g. one
// recovered from another tab's snapshot.
func (t *GuestCartTransfer) TransferPayload(ctx context.Context, items []dto.GuestItem) error {
	return t.run(ctx, items)
}

func (t *GuestCartTransfer) run(ctx context.Context, items []dto.GuestItem) error {
	t.mu.Lock()
	if t.done || t.inFlight {
		t.mu.Unlock()
		t.logger.Debug("guest cart transfer skipped",
			zap.Bool("done", t.done), zap.Bool("in_flight", t.inFlight))
		return nil
	}
	t.inFlight = true
	t.mu.Unlock()

	succeeded := false
	defer func() {
		t.mu.Lock()
		t.inFlight = false
		t.done = succeeded || t.done
		t.mu.Unlock()
	}()

	if len(items) == 0 {
		succeeded = true
		return nil
	}

	lines, err := t.api.TransferGuestCart(ctx, items)
	if err != nil {
		// failed transfers keep the guest cart so a retry can resend it
		return err
	}
	succeeded = true

	t.user.ReplaceFromServer(lines)
	t.guest.ClearLocal()
	t.logger.Info("guest cart transferred",
		zap.Int("guest_lines", len(items)), zap.Int("merged_lines", len(lines)))
	return nil
}
