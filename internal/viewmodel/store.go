// Package viewmodel holds the observable state shared by the screen view models.
package viewmodel

import (
	"fmt"
	"slices"
	"sync"

	evbus "github.com/asaskevich/EventBus"
)

// Store owns a state value of type S and publishes a snapshot to every
// subscriber after each accepted update. Snapshots are delivered in update
// order and before the update call returns.
//
// Subscribers run synchronously on the updating goroutine; they may read
// Snapshot but must not call Update, Subscribe or the unsubscribe func.
type Store[S any] struct {
	mu       sync.Mutex
	notifyMu sync.Mutex
	state    S
	bus      evbus.Bus
	topic    string

	subsMu     sync.Mutex
	subscribed bool
	nextID     uint64
	subs       []subscriber[S]
}

type subscriber[S any] struct {
	id uint64
	fn func(state S)
}

// NewStore creates a store publishing on topic.
func NewStore[S any](topic string, initial S) *Store[S] {
	return &Store[S]{
		state: initial,
		bus:   evbus.New(),
		topic: topic,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store[S]) Snapshot() S {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Update applies fn to the state. fn reports whether it changed anything;
// only then is a snapshot published. Returns fn's result.
func (s *Store[S]) Update(fn func(state *S) bool) bool {
	s.mu.Lock()

	if !fn(&s.state) {
		s.mu.Unlock()

		return false
	}

	snapshot := s.state

	// Taking notifyMu before releasing mu keeps publications in update order
	// while letting subscribers read Snapshot.
	s.notifyMu.Lock()
	s.mu.Unlock()

	defer s.notifyMu.Unlock()

	s.bus.Publish(s.topic, snapshot)

	return true
}

// Subscribe registers fn for every published snapshot. The returned func
// removes this subscription only, even when fn was subscribed more than once.
func (s *Store[S]) Subscribe(fn func(state S)) (func(), error) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	// The bus identifies handlers by code pointer, so it carries a single
	// dispatch handler and the store keeps its own subscriber list.
	if !s.subscribed {
		if err := s.bus.Subscribe(s.topic, s.dispatch); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", s.topic, err)
		}

		s.subscribed = true
	}

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})

	return func() {
		s.unsubscribe(id)
	}, nil
}

func (s *Store[S]) unsubscribe(id uint64) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.subs = slices.DeleteFunc(s.subs, func(sub subscriber[S]) bool {
		return sub.id == id
	})
}

// dispatch delivers a published snapshot to the subscribers registered at
// the time of publication, in subscription order.
func (s *Store[S]) dispatch(state S) {
	s.subsMu.Lock()
	subs := slices.Clone(s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(state)
	}
}
