package storefront

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
	"bookshop-commerce/internal/model"
)

// PaymentAPI covers the gateway rail.
type PaymentAPI interface {
	PrepareInlinePayment(ctx context.Context, orderID uint) (*dto.InlineParams, error)
	CompletePayment(ctx context.Context, req *dto.CompletePaymentRequest) (*dto.CompletePaymentResponse, error)
}

// BankTransferAPI covers the manual transfer rail.
type BankTransferAPI interface {
	GetBankTransfer(ctx context.Context, id string) (*dto.BankTransferDetailResponse, error)
	UploadProof(ctx context.Context, orderID uint, filename string, file io.Reader) (*dto.ProofView, error)
}

// Reconciler ties payment outcomes back to the cart. The cart is
// cleared when, and only when, the server confirms a payment and says
// it cleared its side.
type Reconciler struct {
	payments PaymentAPI
	cart     *Store
	logger   *zap.Logger
}

func NewReconciler(payments PaymentAPI, cart *Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{payments: payments, cart: cart, logger: logger}
}

// PrepareGateway asks the server for the parameters the gateway's
// inline UI needs.
func (r *Reconciler) PrepareGateway(ctx context.Context, orderID uint) (*dto.InlineParams, error) {
	return r.payments.PrepareInlinePayment(ctx, orderID)
}

// CompleteGateway reports a gateway callback to the server and applies
// the verdict. A declined or mismatched payment comes back as a
// non-success response, not an error, and leaves the cart untouched.
func (r *Reconciler) CompleteGateway(ctx context.Context, txRef, status string, verification map[string]any) (*dto.CompletePaymentResponse, error) {
	resp, err := r.payments.CompletePayment(ctx, &dto.CompletePaymentRequest{
		TransactionReference: txRef,
		Status:               status,
		VerificationData:     verification,
	})
	if err != nil {
		return nil, err
	}
	applyOutcome(r.cart, gatewayOutcome(resp), r.logger,
		zap.Uint("order_id", resp.OrderID), zap.String("tx_ref", txRef))
	return resp, nil
}

// paymentOutcome tags the settled verdict of either payment rail.
type paymentOutcome struct {
	rail      string
	confirmed bool
}

func gatewayOutcome(resp *dto.CompletePaymentResponse) paymentOutcome {
	return paymentOutcome{rail: "gateway", confirmed: resp.Success && resp.CartCleared}
}

func transferOutcome(becameVerified bool) paymentOutcome {
	return paymentOutcome{rail: "bank_transfer", confirmed: becameVerified}
}

func (o paymentOutcome) Succeeded() bool { return o.confirmed }

// applyOutcome is the one rule that releases the local cart. Both
// rails funnel their verdicts through here.
func applyOutcome(cart *Store, o paymentOutcome, logger *zap.Logger, fields ...zap.Field) {
	if !o.Succeeded() {
		return
	}
	cart.ClearLocal()
	logger.Info("payment confirmed, cart cleared",
		append(fields, zap.String("rail", o.rail))...)
}

// BankTransferFlow tracks a single manual transfer on the client.
// Status only ever moves forward locally: a refresh that reads an
// older server state than what we already know is ignored.
type BankTransferFlow struct {
	api    BankTransferAPI
	cart   *Store
	logger *zap.Logger

	mu     sync.Mutex
	id     string
	detail *dto.BankTransferDetailResponse
	status model.BankTransferStatus
	proofs []dto.ProofView
}

func NewBankTransferFlow(api BankTransferAPI, cart *Store, logger *zap.Logger) *BankTransferFlow {
	return &BankTransferFlow{api: api, cart: cart, logger: logger}
}

// Refresh fetches the transfer and merges it into local state. A
// transition into verified clears the cart, matching the server-side
// finalize that already ran.
func (f *BankTransferFlow) Refresh(ctx context.Context, id string) (*dto.BankTransferDetailResponse, error) {
	detail, err := f.api.GetBankTransfer(ctx, id)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fetched := detail.BankTransfer.Status
	if f.id == id && fetched.Rank() < f.status.Rank() {
		f.logger.Debug("ignoring stale bank transfer read",
			zap.String("id", id),
			zap.String("fetched", string(fetched)),
			zap.String("known", string(f.status)))
		stale := f.detail
		f.mu.Unlock()
		return stale, nil
	}
	becameVerified := fetched == model.BankTransferVerified && f.status != model.BankTransferVerified
	f.id = id
	f.detail = detail
	f.status = fetched
	f.proofs = detail.Proofs
	f.mu.Unlock()

	applyOutcome(f.cart, transferOutcome(becameVerified), f.logger,
		zap.String("id", id), zap.Uint("order_id", detail.BankTransfer.OrderID))
	return detail, nil
}

func (f *BankTransferFlow) Status() model.BankTransferStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *BankTransferFlow) Proofs() []dto.ProofView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.ProofView(nil), f.proofs...)
}

// UploadProof attaches another receipt image. Proofs are append-only
// and never change the status on their own.
func (f *BankTransferFlow) UploadProof(ctx context.Context, orderID uint, filename string, file io.Reader) (*dto.ProofView, error) {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status.Terminal() {
		return nil, errs.Validation("status", "bank transfer already resolved")
	}

	proof, err := f.api.UploadProof(ctx, orderID, filename, file)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.proofs = append(f.proofs, *proof)
	f.mu.Unlock()
	return proof, nil
}

// CanCompleteOrder reports whether the buyer may hand the order over
// for review: at least one proof uploaded and the transfer not already
// rejected or failed.
func (f *BankTransferFlow) CanCompleteOrder() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.proofs) == 0 {
		return false
	}
	return f.status != model.BankTransferRejected && f.status != model.BankTransferFailed
}

const defaultPollInterval = 15 * time.Second

// Poller re-reads pending bank transfers until they settle. Each
// transfer gets one goroutine; starting an id twice replaces the
// previous loop.
type Poller struct {
	flow     *BankTransferFlow
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	nextToken uint64
	loops     map[string]pollLoop
}

// pollLoop identifies one polling goroutine, so a replaced loop's
// teardown cannot tear down its replacement.
type pollLoop struct {
	token  uint64
	cancel context.CancelFunc
}

func NewPoller(flow *BankTransferFlow, logger *zap.Logger) *Poller {
	return &Poller{
		flow:     flow,
		interval: defaultPollInterval,
		logger:   logger,
		loops:    make(map[string]pollLoop),
	}
}

func (p *Poller) SetInterval(d time.Duration) {
	p.interval = d
}

// Start polls the transfer until it reaches a terminal status or the
// context is cancelled.
func (p *Poller) Start(ctx context.Context, id string) {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if prev, ok := p.loops[id]; ok {
		prev.cancel()
	}
	p.nextToken++
	token := p.nextToken
	p.loops[id] = pollLoop{token: token, cancel: cancel}
	p.mu.Unlock()

	go func() {
		defer p.release(id, token)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if _, err := p.flow.Refresh(ctx, id); err != nil {
				p.logger.Warn("bank transfer poll failed",
					zap.String("id", id), zap.Error(err))
				continue
			}
			if p.flow.Status().Terminal() {
				p.logger.Info("bank transfer settled",
					zap.String("id", id), zap.String("status", string(p.flow.Status())))
				return
			}
		}
	}()
}

// release is the loop's own teardown. It only removes the entry if
// this loop still owns it.
func (p *Poller) release(id string, token uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loop, ok := p.loops[id]; ok && loop.token == token {
		loop.cancel()
		delete(p.loops, id)
	}
}

func (p *Poller) Stop(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loop, ok := p.loops[id]; ok {
		loop.cancel()
		delete(p.loops, id)
	}
}

func (p *Poller) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, loop := range p.loops {
		loop.cancel()
		delete(p.loops, id)
	}
}
