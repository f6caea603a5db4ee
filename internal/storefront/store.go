package storefront

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookshop-commerce/internal/dto"
	"bookshop-commerce/internal/errs"
)

// CartAPI is the slice of the commerce API the store needs.
type CartAPI interface {
	GetCart(ctx context.Context) ([]dto.CartLine, error)
	AddToCart(ctx context.Context, bookID uint, quantity int) ([]dto.CartLine, error)
	UpdateCartItem(ctx context.Context, bookID uint, quantity int) ([]dto.CartLine, error)
	RemoveCartItem(ctx context.Context, bookID uint) ([]dto.CartLine, error)
	ClearCart(ctx context.Context) error
}

const defaultRefreshInterval = 30 * time.Second

// Store is the single owner of cart state. Authenticated mutations are
// applied optimistically, then overwritten by whatever the server
// returns; guest mutations are local and persisted as a snapshot.
// Every reader derives classification through Analyze, never by hand.
type Store struct {
	mu      sync.Mutex
	items   []CartItem
	seq     uint64 // last issued request; responses for older requests are stale
	api     CartAPI
	storage SnapshotStorage
	logger  *zap.Logger

	refreshEvery time.Duration
	poke         chan struct{}

	subMu sync.Mutex
	subs  map[int]chan []CartItem
	nextS int
}

type StoreOption func(*Store)

func WithRefreshInterval(d time.Duration) StoreOption {
	return func(s *Store) { s.refreshEvery = d }
}

// NewUserStore builds a store backed by the server-side cart.
func NewUserStore(api CartAPI, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		api:          api,
		logger:       logger,
		refreshEvery: defaultRefreshInterval,
		poke:         make(chan struct{}, 1),
		subs:         make(map[int]chan []CartItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewGuestStore builds a local-only store persisted through storage.
func NewGuestStore(storage SnapshotStorage, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		storage:      storage,
		logger:       logger,
		refreshEvery: defaultRefreshInterval,
		poke:         make(chan struct{}, 1),
		subs:         make(map[int]chan []CartItem),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) IsGuest() bool {
	return s.api == nil
}

// Items returns a copy of the current lines.
func (s *Store) Items() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CartItem(nil), s.items...)
}

// Analytics recomputes classification and totals from current state.
func (s *Store) Analytics() Analytics {
	return Analyze(s.Items())
}

// Load replaces local state with the authoritative snapshot: the
// server cart for users, the persisted snapshot for guests.
func (s *Store) Load(ctx context.Context) error {
	if s.IsGuest() {
		data, err := s.storage.Load()
		if err != nil {
			return fmt.Errorf("load guest snapshot: %w", err)
		}
		items, err := decodeSnapshot(data)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.items = items
		s.mu.Unlock()
		s.notify()
		return nil
	}

	s.mu.Lock()
	seq := s.issue()
	s.mu.Unlock()

	lines, err := s.api.GetCart(ctx)
	if err != nil {
		return err
	}
	s.adopt(seq, lines)
	return nil
}

// Add puts line.Quantity more of the book into the cart, merging into
// an existing line rather than duplicating it.
func (s *Store) Add(ctx context.Context, line CartItem) error {
	if line.Quantity < 1 {
		return nil
	}

	if s.IsGuest() {
		if err := s.checkGuestLine(line); err != nil {
			return err
		}
		s.mu.Lock()
		s.applyAdd(line)
		err := s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	s.applyAdd(line)
	seq := s.issue()
	s.mu.Unlock()
	s.notify()

	lines, err := s.api.AddToCart(ctx, line.BookID, line.Quantity)
	if err != nil {
		// optimistic state stays; the next Load resynchronizes
		return err
	}
	s.adopt(seq, lines)
	return nil
}

// SetQuantity replaces a line's quantity. Zero removes the line;
// negative quantities are ignored.
func (s *Store) SetQuantity(ctx context.Context, bookID uint, quantity int) error {
	if quantity < 0 {
		return nil
	}
	if quantity == 0 {
		return s.Remove(ctx, bookID)
	}

	if s.IsGuest() {
		s.mu.Lock()
		item, ok := s.find(bookID)
		if !ok {
			s.mu.Unlock()
			return errs.Validation("book_id", "item not in cart")
		}
		check := item
		check.Quantity = quantity
		if err := s.checkGuestTotal(check); err != nil {
			s.mu.Unlock()
			return err
		}
		s.applySet(bookID, quantity)
		err := s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	s.applySet(bookID, quantity)
	seq := s.issue()
	s.mu.Unlock()
	s.notify()

	lines, err := s.api.UpdateCartItem(ctx, bookID, quantity)
	if err != nil {
		return err
	}
	s.adopt(seq, lines)
	return nil
}

func (s *Store) Remove(ctx context.Context, bookID uint) error {
	if s.IsGuest() {
		s.mu.Lock()
		s.applyRemove(bookID)
		err := s.persistLocked()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	s.applyRemove(bookID)
	seq := s.issue()
	s.mu.Unlock()
	s.notify()

	lines, err := s.api.RemoveCartItem(ctx, bookID)
	if err != nil {
		return err
	}
	s.adopt(seq, lines)
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if s.IsGuest() {
		s.ClearLocal()
		return nil
	}

	s.mu.Lock()
	s.items = nil
	s.issue()
	s.mu.Unlock()
	s.notify()

	return s.api.ClearCart(ctx)
}

// ClearLocal empties local state without a server round-trip. Payment
// reconciliation calls it after the server has already cleared the
// cart as part of a confirmed payment.
func (s *Store) ClearLocal() {
	s.mu.Lock()
	s.items = nil
	if s.storage != nil {
		if err := s.storage.Clear(); err != nil {
			s.logger.Warn("clear guest snapshot", zap.Error(err))
		}
	}
	s.mu.Unlock()
	s.notify()
}

// ReplaceFromServer adopts an authoritative server payload, e.g. the
// merged cart returned by a guest transfer.
func (s *Store) ReplaceFromServer(lines []dto.CartLine) {
	s.mu.Lock()
	s.issue()
	s.items = fromLines(lines)
	s.mu.Unlock()
	s.notify()
}

// Subscribe delivers the latest items after each change. Slow
// receivers only ever see the newest state; intermediate updates are
// coalesced away.
func (s *Store) Subscribe() (<-chan []CartItem, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextS
	s.nextS++
	ch := make(chan []CartItem, 1)
	s.subs[id] = ch
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Poke requests an immediate refresh, mirroring a window refocus.
func (s *Store) Poke() {
	select {
	case s.poke <- struct{}{}:
	default:
	}
}

// StartAutoRefresh re-fetches server state on a fixed interval and on
// Poke, correcting drift from stock or price changes made elsewhere.
// Guest stores have nothing to refresh from.
func (s *Store) StartAutoRefresh(ctx context.Context) (stop func()) {
	if s.IsGuest() {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(s.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			case <-s.poke:
			}
			if err := s.Load(ctx); err != nil {
				s.logger.Warn("cart refresh failed", zap.Error(err))
			}
		}
	}()
	return cancel
}

// -------- internal --------

// issue tags the next server round-trip; must hold mu.
func (s *Store) issue() uint64 {
	s.seq++
	return s.seq
}

// adopt installs a server payload unless a newer request has been
// issued since, in which case the stale response is dropped.
func (s *Store) adopt(seq uint64, lines []dto.CartLine) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug("discarding stale cart response",
			zap.Uint64("seq", seq))
		return
	}
	s.items = fromLines(lines)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) find(bookID uint) (CartItem, bool) {
	for _, item := range s.items {
		if item.BookID == bookID {
			return item, true
		}
	}
	return CartItem{}, false
}

func (s *Store) applyAdd(line CartItem) {
	for i, item := range s.items {
		if item.BookID == line.BookID {
			s.items[i].Quantity += line.Quantity
			return
		}
	}
	s.items = append(s.items, line)
}

func (s *Store) applySet(bookID uint, quantity int) {
	for i, item := range s.items {
		if item.BookID == bookID {
			s.items[i].Quantity = quantity
			return
		}
	}
}

func (s *Store) applyRemove(bookID uint) {
	for i, item := range s.items {
		if item.BookID == bookID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *Store) persistLocked() error {
	data, err := encodeSnapshot(s.items)
	if err != nil {
		return err
	}
	if err := s.storage.Save(data); err != nil {
		return fmt.Errorf("persist guest snapshot: %w", err)
	}
	return nil
}

// checkGuestLine validates an add against the book data carried on the
// line itself; guests have no server to ask.
func (s *Store) checkGuestLine(line CartItem) error {
	if !line.IsActive {
		return errs.Validation("book_id", "book is no longer available")
	}
	s.mu.Lock()
	have := 0
	if existing, ok := s.find(line.BookID); ok {
		have = existing.Quantity
	}
	s.mu.Unlock()
	check := line
	check.Quantity += have
	return s.checkGuestTotal(check)
}

func (s *Store) checkGuestTotal(line CartItem) error {
	if line.Format.IsPhysical() && line.InventoryEnabled && line.Quantity > line.StockQuantity {
		return errs.Validation("quantity", "requested quantity exceeds stock")
	}
	return nil
}

func (s *Store) notify() {
	items := s.Items()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- items:
		default:
			// drop the stale update and replace it with the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- items:
			default:
			}
		}
	}
}
