// Package mem provides the in-memory notification store. It is the
// default backing for the dispatcher: a keyed map with a stable
// insertion order, matching how a small device holds its pending
// notifications between display refreshes.
package mem

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/tether/pkg/core"
)

// DefaultEventBuffer is the per-watcher channel capacity.
const DefaultEventBuffer = 16

// Store implements core.Store and core.Watchable in memory.
type Store struct {
	mu      sync.RWMutex
	byID    map[int]core.Notification
	order   []int
	subs    map[int]chan core.Event
	nextSub int
	buffer  int
	clock   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithEventBuffer sets the per-watcher event channel capacity.
func WithEventBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// WithClock overrides the event timestamp source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[int]core.Notification),
		subs:   make(map[int]chan core.Event),
		buffer: DefaultEventBuffer,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save inserts or overwrites a notification. Overwriting keeps the
// entry's original position in the listing.
func (s *Store) Save(ctx context.Context, n core.Notification) error {
	s.mu.Lock()
	if _, exists := s.byID[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.byID[n.ID] = n
	s.mu.Unlock()

	s.publish(core.Event{Type: core.EventCreate, ID: n.ID, Timestamp: s.clock().Unix()})
	return nil
}

// Get retrieves a notification by id.
func (s *Store) Get(ctx context.Context, id int) (core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return core.Notification{}, core.ErrNotFound
	}
	return n, nil
}

// List returns all pending notifications in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Delete removes a notification. Absent ids are a no-op.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	_, existed := s.byID[id]
	if existed {
		delete(s.byID, id)
		for i, oid := range s.order {
			if oid == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if existed {
		s.publish(core.Event{Type: core.EventDelete, ID: id, Timestamp: s.clock().Unix()})
	}
	return nil
}

// Initialize implements core.Store. Nothing to prepare in memory.
func (s *Store) Initialize(ctx context.Context) error { return nil }

// Watch emits an event for every create and delete until ctx ends.
// A watcher that falls behind its buffer drops events rather than
// blocking the dispatch path.
func (s *Store) Watch(ctx context.Context) (<-chan core.Event, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan core.Event, s.buffer)
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

func (s *Store) publish(e core.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// StoreState exposes internal state for observability.
type StoreState struct {
	Pending  int `json:"pending"`
	Watchers int `json:"watchers"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{Pending: len(s.byID), Watchers: len(s.subs)}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string { return "mem" }

var _ core.Store = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
