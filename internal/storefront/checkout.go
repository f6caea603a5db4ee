package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
)

// CheckoutAPI places an order from the submitted cart lines.
type CheckoutAPI interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type CheckoutState string

const (
	StateIdle            CheckoutState = "idle"
	StateValidating      CheckoutState = "validating"
	StateSubmitting      CheckoutState = "submitting"
	StateAwaitingPayment CheckoutState = "awaiting_payment"
	StateFailed          CheckoutState = "failed"
)

const (
	ShippingMethodStandard = "standard"
	ShippingMethodExpress  = "express"

	defaultSubmitTimeout = 30 * time.Second
)

// ShippingRates mirror the server's configured flat rates so the
// client can show an estimate before submitting.
type ShippingRates struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
}

// CheckoutForm carries everything the buyer typed. Cart lines are
// taken from the store at submit time, never from the form.
type CheckoutForm struct {
	ShippingAddress model.Address
	BillingAddress  model.Address
	ShippingMethod  string
	PaymentMethod   model.PaymentMethod
	Email           string
	Phone           string
	Notes           string
}

// Orchestrator drives a checkout from idle through submission. A
// failed attempt leaves the cart exactly as it was; only payment
// confirmation ever empties it.
type Orchestrator struct {
	api      CheckoutAPI
	cart     *Store
	rates    ShippingRates
	timeout  time.Duration
	validate *validator.Validate
	logger   *zap.Logger

	mu      sync.Mutex
	state   CheckoutState
	result  *dto.CheckoutResponse
	lastErr error
}

type OrchestratorOption func(*Orchestrator)

func WithSubmitTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.timeout = d }
}

func NewOrchestrator(api CheckoutAPI, cart *Store, rates ShippingRates, logger *zap.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		api:      api,
		cart:     cart,
		rates:    rates,
		timeout:  defaultSubmitTimeout,
		validate: validator.New(),
		logger:   logger,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the placed order once the state is awaiting_payment.
func (o *Orchestrator) Result() *dto.CheckoutResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Reset returns a failed or completed checkout to idle so the buyer
// can try again.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.result = nil
	o.lastErr = nil
}

// EstimateShipping prices the chosen method against the current cart.
// Carts without a physical item ship for free regardless of method.
func (o *Orchestrator) EstimateShipping(method string) (decimal.Decimal, error) {
	a := o.cart.Analytics()
	if a.PhysicalCount == 0 {
		return decimal.Zero, nil
	}
	switch method {
	case ShippingMethodStandard:
		return o.rates.Standard, nil
	case ShippingMethodExpress:
		return o.rates.Express, nil
	default:
		return decimal.Zero, errs.Validation("shipping_method", "unknown shipping method")
	}
}

// Submit validates the form against the live cart and places the
// order. On success the state moves to awaiting_payment and the cart
// is left intact for the payment step to clear.
func (o *Orchestrator) Submit(ctx context.Context, form CheckoutForm) (*dto.CheckoutResponse, error) {
	o.mu.Lock()
	if o.state == StateValidating || o.state == StateSubmitting {
		o.mu.Unlock()
		return nil, errs.Validation("", "checkout already in progress")
	}
	o.state = StateValidating
	o.result = nil
	o.lastErr = nil
	o.mu.Unlock()

	items := o.cart.Items()
	req, err := o.buildRequest(items, form)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.setState(StateSubmitting)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.api.Checkout(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			err = errs.Network(ctx.Err())
		}
		o.fail(err)
		return nil, err
	}

	o.mu.Lock()
	o.state = StateAwaitingPayment
	o.result = resp
	o.mu.Unlock()

	o.logger.Info("order placed",
		zap.String("order_number", resp.Order.OrderNumber),
		zap.String("payment_method", string(resp.Order.PaymentMethod)))
	return resp, nil
}

func (o *Orchestrator) buildRequest(items []CartItem, form CheckoutForm) (*dto.CheckoutRequest, error) {
	if len(items) == 0 {
		return nil, errs.Validation("items", "cart is empty")
	}

	physical := false
	for _, item := range items {
		if !item.IsActive {
			return nil, errs.Validation("items", item.Title+" is no longer available")
		}
		if item.Format.IsPhysical() {
			physical = true
			if item.InventoryEnabled && item.Quantity > item.StockQuantity {
				return nil, errs.Validation("items", item.Title+" exceeds available stock")
			}
		}
	}

	if physical {
		if !form.ShippingAddress.Complete() {
			return nil, errs.Validation("shipping_address", "shipping address is incomplete")
		}
		if _, err := o.EstimateShipping(form.ShippingMethod); err != nil {
			return nil, err
		}
	}

	req := &dto.CheckoutRequest{
		Items:           toGuestItems(items),
		ShippingAddress: form.ShippingAddress,
		BillingAddress:  form.BillingAddress,
		ShippingMethod:  form.ShippingMethod,
		PaymentMethod:   form.PaymentMethod,
		Email:           form.Email,
		Phone:           form.Phone,
		Notes:           form.Notes,
	}
	if err := o.validate.Struct(req); err != nil {
		return nil, asFieldError(err)
	}
	return req, nil
}

func (o *Orchestrator) setState(state CheckoutState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.state = StateFailed
	o.lastErr = err
	o.mu.Unlock()
	o.logger.Warn("checkout failed", zap.Error(err))
}

func asFieldError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		field := strings.ToLower(ve[0].Field())
		return errs.Validation(field, "invalid value for "+field)
	}
	return errs.Validation("", err.Error())
}
