package cart

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/gocart/storefront/pkg/errors"
	"github.com/gocart/storefront/pkg/metrics"
)

const (
	opAdd       = "add"
	opIncrement = "increment"
	opDecrement = "decrement"
	opRemove    = "remove"
	opClear     = "clear"
)

// Listener observes committed cart state. Listeners run synchronously after
// each committed mutation and must not call back into the Store.
type Listener func(consumerID string, snapshot Snapshot)

// Store is one consumer's cart. Mutations are serialized, re-read storage
// under the lock and perform exactly one storage write before the in-memory
// view changes.
type Store struct {
	mu         *sync.Mutex
	consumerID string
	storage    Storage
	metrics    *metrics.Storefront

	items   []LineItem
	nextPos int64

	listeners map[int]Listener
	nextSub   int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics records cart mutation outcomes.
func WithMetrics(m *metrics.Storefront) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithListener subscribes fn to every committed mutation of the Store.
func WithListener(fn Listener) StoreOption {
	return func(s *Store) {
		s.Subscribe(fn)
	}
}

// withLock shares mu with other Stores of the same consumer.
func withLock(mu *sync.Mutex) StoreOption {
	return func(s *Store) {
		s.mu = mu
	}
}

// NewStore loads the consumer's persisted cart.
func NewStore(ctx context.Context, consumerID string, storage Storage, opts ...StoreOption) (*Store, error) {
	consumerID = strings.TrimSpace(consumerID)
	if consumerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "consumer id is required")
	}
	if storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart storage is required")
	}

	s := &Store{
		mu:         &sync.Mutex{},
		consumerID: consumerID,
		storage:    storage,
		listeners:  map[int]Listener{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Refresh replaces the in-memory view with what storage currently holds.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

// reload must be called with mu held.
func (s *Store) reload(ctx context.Context) error {
	items, err := s.storage.Load(ctx, s.consumerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	s.items = make([]LineItem, 0, len(items))
	s.nextPos = 0
	for _, item := range items {
		if item.Quantity < 1 || item.ProductID == "" {
			continue
		}
		s.items = append(s.items, item)
		if item.Position >= s.nextPos {
			s.nextPos = item.Position + 1
		}
	}
	return nil
}

// resync re-reads storage before a mutation so writes made through another
// Store of the same consumer are not overwritten.
func (s *Store) resync(ctx context.Context, op string) error {
	if err := s.reload(ctx); err != nil {
		s.metrics.IncCartMutation(op, "storage_error")
		return err
	}
	return nil
}

// ConsumerID returns the cart owner.
func (s *Store) ConsumerID() string {
	return s.consumerID
}

// AddItem adds qty units of product. A non-positive qty is a no-op. Every
// item of a non-empty cart must come from the same vendor.
func (s *Store) AddItem(ctx context.Context, product Product, qty int) error {
	if qty <= 0 {
		return nil
	}
	productID := strings.TrimSpace(product.ID)
	vendorID := strings.TrimSpace(product.VendorID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if vendorID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product vendor is required")
	}
	if product.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resync(ctx, opAdd); err != nil {
		return err
	}

	if len(s.items) > 0 && s.items[0].VendorID != vendorID {
		s.metrics.IncCartMutation(opAdd, "conflict")
		return ErrVendorMismatch.WithDetails(map[string]any{
			"cart_vendor_id":    s.items[0].VendorID,
			"product_vendor_id": vendorID,
		})
	}

	idx := s.indexOf(productID)
	var next LineItem
	if idx >= 0 {
		next = s.items[idx]
		next.Quantity += qty
	} else {
		next = LineItem{
			ProductID: productID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  qty,
			VendorID:  vendorID,
			ImageRef:  product.ImageRef,
			Position:  s.nextPos,
		}
	}

	if err := s.storage.SaveItem(ctx, s.consumerID, next); err != nil {
		return s.storageFailure(opAdd, err)
	}

	if idx >= 0 {
		s.items[idx] = next
	} else {
		s.items = append(s.items, next)
		s.nextPos++
	}
	s.commit(opAdd)
	return nil
}

// IncrementItem adds one unit of an item already in the cart.
func (s *Store) IncrementItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resync(ctx, opIncrement); err != nil {
		return err
	}

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	next := s.items[idx]
	next.Quantity++
	if err := s.storage.SaveItem(ctx, s.consumerID, next); err != nil {
		return s.storageFailure(opIncrement, err)
	}
	s.items[idx] = next
	s.commit(opIncrement)
	return nil
}

// DecrementItem removes one unit; the item is dropped when it would fall below 1.
func (s *Store) DecrementItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resync(ctx, opDecrement); err != nil {
		return err
	}

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	current := s.items[idx]
	if current.Quantity <= 1 {
		if err := s.storage.DeleteItem(ctx, s.consumerID, current.ProductID); err != nil {
			return s.storageFailure(opDecrement, err)
		}
		s.removeAt(idx)
		s.commit(opDecrement)
		return nil
	}

	current.Quantity--
	if err := s.storage.SaveItem(ctx, s.consumerID, current); err != nil {
		return s.storageFailure(opDecrement, err)
	}
	s.items[idx] = current
	s.commit(opDecrement)
	return nil
}

// RemoveItem drops productID regardless of quantity.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.resync(ctx, opRemove); err != nil {
		return err
	}

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}
	if err := s.storage.DeleteItem(ctx, s.consumerID, s.items[idx].ProductID); err != nil {
		return s.storageFailure(opRemove, err)
	}
	s.removeAt(idx)
	s.commit(opRemove)
	return nil
}

// Clear empties the cart with a single storage operation.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Clear(ctx, s.consumerID); err != nil {
		return s.storageFailure(opClear, err)
	}
	s.items = s.items[:0]
	s.commit(opClear)
	return nil
}

// Snapshot returns an immutable copy of the cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSnapshot(s.items)
}

// LineCount is the number of distinct products, shown on the cart badge.
func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// QuantityOf returns the quantity of productID, 0 when absent.
func (s *Store) QuantityOf(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(productID); idx >= 0 {
		return s.items[idx].Quantity
	}
	return 0
}

// Subscribe registers a post-commit listener and returns its cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) indexOf(productID string) int {
	productID = strings.TrimSpace(productID)
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(idx int) {
	s.items = append(s.items[:idx], s.items[idx+1:]...)
}

// commit must be called with mu held.
func (s *Store) commit(op string) {
	s.metrics.IncCartMutation(op, "ok")
	if len(s.listeners) == 0 {
		return
	}
	snap := NewSnapshot(s.items)
	for _, fn := range s.listeners {
		fn(s.consumerID, snap)
	}
}

func (s *Store) storageFailure(op string, err error) error {
	s.metrics.IncCartMutation(op, "storage_error")
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
}
