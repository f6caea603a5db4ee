package storefront

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
)

// OrdersAPI lists the authenticated user's orders, newest first.
type OrdersAPI interface {
	ListUserOrders(ctx context.Context) ([]dto.OrderView, error)
}

// OrdersProjection is a read model over the user's order history. It
// distinguishes "no orders" from "not loaded yet" so a failed fetch is
// never rendered as an empty history.
type OrdersProjection struct {
	api    OrdersAPI
	logger *zap.Logger

	mu         sync.Mutex
	orders     []dto.OrderView
	loaded     bool
	needsLogin bool
}

func NewOrdersProjection(api OrdersAPI, logger *zap.Logger) *OrdersProjection {
	return &OrdersProjection{api: api, logger: logger}
}

// Refresh re-reads the history. An authentication failure flips the
// projection into needs-login and keeps it unloaded.
func (p *OrdersProjection) Refresh(ctx context.Context) error {
	orders, err := p.api.ListUserOrders(ctx)
	if err != nil {
		if errs.IsAuth(err) {
			p.mu.Lock()
			p.needsLogin = true
			p.loaded = false
			p.orders = nil
			p.mu.Unlock()
		}
		p.logger.Warn("order history refresh failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	p.orders = orders
	p.loaded = true
	p.needsLogin = false
	p.mu.Unlock()
	return nil
}

// Orders returns the history and whether it has been loaded. Callers
// must not render an empty list when loaded is false.
func (p *OrdersProjection) Orders() (orders []dto.OrderView, loaded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.OrderView(nil), p.orders...), p.loaded
}

// NeedsLogin reports whether the last refresh was rejected for auth,
// signalling a redirect to login instead of an error page.
func (p *OrdersProjection) NeedsLogin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.needsLogin
}

func (p *OrdersProjection) FindByNumber(orderNumber string) (dto.OrderView, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.orders {
		if o.OrderNumber == orderNumber {
			return o, true
		}
	}
	return dto.OrderView{}, false
}
