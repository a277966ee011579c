package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/shopspring/decimal"
)

const metricsStore = "cart"

// Store owns the cart line items. Every mutation is persisted and then broadcast to
// subscribers. Subscribers must not call Store mutators from inside the callback.
type Store struct {
	mu    sync.Mutex
	items []LineItem

	// notifyMu is taken before mu is released so subscribers see mutations in order.
	notifyMu sync.Mutex
	subsMu   sync.Mutex
	subs     map[int]func(Snapshot)
	nextSub  int

	kv      storage.KV
	key     string
	logg    *logger.Logger
	metrics *metrics.StoreMetrics
}

// Option configures optional store behavior.
type Option func(*Store)

func WithLogger(logg *logger.Logger) Option {
	return func(s *Store) {
		if logg != nil {
			s.logg = logg
		}
	}
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithKey overrides the durable record key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// NewStore builds a cart store and restores the persisted cart. A missing or corrupt
// record starts an empty cart.
func NewStore(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	s := &Store{
		kv:   kv,
		key:  StorageKey,
		logg: logger.Nop(),
		subs: map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.items = s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) []LineItem {
	ctx = s.logg.WithField(ctx, "storage_key", s.key)
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []LineItem{}
	}
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Error(ctx, "cart.load_failed", err)
		return []LineItem{}
	}
	items, err := Decode(data)
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "cart.storage_corrupt")
		return []LineItem{}
	}
	s.logg.Debug(s.logg.WithField(ctx, "line_items", len(items)), "cart.restored")
	return items
}

// AddItem increments the quantity of an existing line or appends a new line with
// quantity 1. An existing line keeps the snapshot taken when it was first added.
func (s *Store) AddItem(ctx context.Context, p catalog.Product) {
	s.mu.Lock()
	if i := s.indexLocked(p.ID); i >= 0 {
		s.items[i].Quantity++
	} else {
		s.items = append(s.items, newLineItem(p))
	}
	s.commitLocked(s.logg.WithProductID(ctx, p.ID), "add")
}

// RemoveItem drops the line for productID. Absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, productID int) {
	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.commitLocked(s.logg.WithProductID(ctx, productID), "remove")
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or less
// removes the line. Absent ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID, quantity int) {
	s.mu.Lock()
	i := s.indexLocked(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	op := "update"
	if quantity <= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		op = "remove"
	} else {
		s.items[i].Quantity = quantity
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": productID, "quantity": quantity})
	s.commitLocked(ctx, op)
}

// Clear empties the cart and its persisted record.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = []LineItem{}
	s.commitLocked(ctx, "clear")
}

// commitLocked persists and publishes the current items. It releases mu.
func (s *Store) commitLocked(ctx context.Context, op string) {
	s.persistLocked(ctx)
	snap := snapshotOf(s.items)

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.metrics.IncCartMutation(op)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"line_items":     snap.Count,
		"total_quantity": snap.TotalQuantity,
	}), "cart."+op)
	s.publish(snap)
}

func (s *Store) persistLocked(ctx context.Context) {
	data, err := Encode(s.items)
	if err == nil {
		err = s.kv.Set(ctx, s.key, data)
	}
	if err != nil {
		s.metrics.IncStorageFailure(metricsStore)
		s.logg.Error(ctx, "cart.persist_failed", err)
	}
}

func (s *Store) indexLocked(productID int) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Item returns the line for productID, if any.
func (s *Store) Item(productID int) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(productID); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

// Count is the number of distinct line items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) TotalQuantity() int {
	return s.Snapshot().TotalQuantity
}

func (s *Store) TotalPrice() decimal.Decimal {
	return s.Snapshot().TotalPrice
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.items)
}

// Subscribe registers fn for every subsequent change. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) publish(snap Snapshot) {
	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(Snapshot{
			Items:         cloneItems(snap.Items),
			Count:         snap.Count,
			TotalQuantity: snap.TotalQuantity,
			TotalPrice:    snap.TotalPrice,
		})
	}
}
