package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/Ratio1/cart_sdk_go/internal/metrics"
	"github.com/Ratio1/cart_sdk_go/internal/platform/logger"
)

// KV is the persistence the store needs. Get returns nil, nil for a missing
// key. *cstore.Client satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store owns one cart. It is safe for concurrent use; operations are applied
// in the order they acquire the store.
type Store struct {
	kv      KV
	key     string
	log     logger.Logger
	metrics *metrics.Metrics
	w       *writer

	ready         chan struct{}
	cancelHydrate context.CancelFunc

	mu      sync.Mutex
	cart    Cart
	closed  bool
	subs    map[uint64]chan Cart
	nextSub uint64
}

// New creates a store and starts hydrating it from kv in the background.
// Until hydration finishes Snapshot returns an empty cart and mutations
// block. Cancelling ctx aborts hydration, leaving the cart empty.
func New(ctx context.Context, kv KV, opts ...Option) *Store {
	if kv == nil {
		panic(usage("New", "key-value store is nil"))
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := o.log.With("component", "cart", "key", o.key)
	hctx, cancel := context.WithTimeout(ctx, o.hydrateTimeout)
	s := &Store{
		kv:            kv,
		key:           o.key,
		log:           log,
		metrics:       o.metrics,
		w:             newWriter(kv, o, log),
		ready:         make(chan struct{}),
		cancelHydrate: cancel,
		cart:          Cart{},
		subs:          make(map[uint64]chan Cart),
	}
	go s.hydrate(hctx)
	return s
}

// Open is New followed by waiting for hydration. If ctx ends first the store
// is closed and ctx's error returned.
func Open(ctx context.Context, kv KV, opts ...Option) (*Store, error) {
	s := New(ctx, kv, opts...)
	select {
	case <-s.ready:
	case <-ctx.Done():
	}
	// a done ctx wins even when hydration also finished
	if err := ctx.Err(); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) {
	defer s.cancelHydrate()

	loaded := Cart{}
	result := metrics.HydrateEmpty
	data, err := s.kv.Get(ctx, s.key)
	switch {
	case err != nil:
		result = metrics.HydrateFailed
		s.log.Warnf("cart: hydrate read failed, starting empty: %v", err)
	case data != nil:
		c, decErr := Decode(data)
		if decErr != nil {
			result = metrics.HydrateFailed
			s.log.Warnf("cart: persisted cart is malformed, starting empty: %v", decErr)
			break
		}
		if len(c) > 0 {
			loaded, result = c, metrics.HydrateLoaded
		}
	}
	s.metrics.ObserveHydration(result)

	s.mu.Lock()
	s.cart = loaded
	s.metrics.SetCartSize(loaded.Len(), loaded.Units())
	s.publishLocked()
	close(s.ready)
	s.mu.Unlock()

	s.log.Debugf("cart: hydrated %d item(s) (%s)", loaded.Len(), result)
}

// Ready is closed once hydration has finished, whether or not anything was
// loaded.
func (s *Store) Ready() <-chan struct{} {
	s.mustExist("Ready")
	return s.ready
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Cart {
	s.lockOpen("Snapshot")
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// AddToCart adds c, or increments it when its ID is already in the cart.
// Candidates that fail Valid are ignored.
func (s *Store) AddToCart(c Candidate) { s.Dispatch(Add{Item: c}) }

// Increment raises the quantity of id by one. Unknown IDs are ignored.
func (s *Store) Increment(id string) { s.Dispatch(Increment{ID: id}) }

// Decrement lowers the quantity of id by one, removing it at zero. Unknown
// IDs are ignored and cause no write.
func (s *Store) Decrement(id string) { s.Dispatch(Decrement{ID: id}) }

// Clear empties the cart.
func (s *Store) Clear() { s.Dispatch(Clear{}) }

// Dispatch applies op to the latest cart and reports whether it changed.
// A change is published to subscribers and scheduled for persistence before
// Dispatch returns; the write itself happens in the background.
func (s *Store) Dispatch(op Op) bool {
	if op == nil {
		panic(usage("Dispatch", "op is nil"))
	}
	s.mustExist(op.Name())
	<-s.ready

	s.lockOpen(op.Name())
	next, changed := Reduce(s.cart, op)
	if changed {
		s.cart = next
		s.persistLocked(next)
		s.metrics.SetCartSize(next.Len(), next.Units())
		s.publishLocked()
	}
	s.mu.Unlock()

	s.metrics.ObserveOp(op.Name(), changed)
	return changed
}

func (s *Store) persistLocked(c Cart) {
	payload, err := Encode(c)
	if err != nil {
		s.metrics.ObserveWrite(err)
		s.log.Errorf("cart: not persisting: %v", err)
		return
	}
	s.w.enqueue(payload)
}

// Subscribe returns a channel that receives the cart after hydration and
// after every change. Only the newest cart is buffered, so a slow reader
// skips intermediate states. cancel closes the channel.
func (s *Store) Subscribe() (updates <-chan Cart, cancel func()) {
	s.lockOpen("Subscribe")
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Cart, 1)
	s.subs[id] = ch

	select {
	case <-s.ready:
		ch <- s.cart.Clone()
	default:
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *Store) publishLocked() {
	for _, ch := range s.subs {
		snap := s.cart.Clone()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Flush waits until every change made so far has been written or has
// failed. Write errors are not reported here either.
func (s *Store) Flush(ctx context.Context) error {
	s.mustExist("Flush")
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		panic(usage("Flush", "store is closed"))
	}
	return s.w.flush(ctx)
}

// Close flushes pending writes, stops the writer and closes subscriber
// channels. Further calls return nil; any other use panics.
func (s *Store) Close(ctx context.Context) error {
	s.mustExist("Close")
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelHydrate()

	err := s.w.flush(ctx)
	s.w.close()

	s.mu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warnf("cart: close before pending writes finished: %v", err)
	}
	return err
}

func (s *Store) mustExist(op string) {
	if s == nil {
		panic(usage(op, "store is nil"))
	}
}

// lockOpen acquires s.mu and panics if the store is closed.
func (s *Store) lockOpen(op string) {
	s.mustExist(op)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		panic(usage(op, "store is closed"))
	}
}
