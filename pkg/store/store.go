// Package store implements the action-dispatch state container of the vio
// runtime.
//
// A Store holds one state mapping and a fixed table of reducers keyed by
// action name. Every successful Dispatch replaces the state wholesale and
// announces the change on the event bus as "store:change":
//
//	s := store.New(store.State{"count": 0}, map[string]store.Reducer{
//	    "increment": func(s store.State, _ any) store.State {
//	        s["count"] = s["count"].(int) + 1
//	        return s
//	    },
//	}, bus)
//	err := s.Dispatch("increment", nil)
package store

import (
	"maps"
	"slices"
	"sync"

	"github.com/go-drift/vio/pkg/errors"
	"github.com/go-drift/vio/pkg/events"
)

// ChangeEvent is the bus event emitted after every successful dispatch.
const ChangeEvent = "store:change"

// State is the store's state mapping.
type State = map[string]any

// Reducer computes the next state from a copy of the current state and the
// action payload. It may modify and return its argument.
type Reducer func(state State, payload any) State

// Subscriber is notified after each dispatch with the new and previous state.
type Subscriber func(next, prev State)

// Store is a reducer-driven state container. Reducers run outside the
// store's lock, so they may read the store but must not dispatch.
type Store struct {
	mu       sync.Mutex
	state    State
	reducers map[string]Reducer
	bus      *events.Bus
	subs     []*subscriber
}

type subscriber struct {
	fn Subscriber
}

// New creates a store. The initial state and reducer table are copied; bus
// may be nil, in which case no events are emitted.
func New(initial State, reducers map[string]Reducer, bus *events.Bus) *Store {
	return &Store{
		state:    clone(initial),
		reducers: maps.Clone(reducers),
		bus:      bus,
	}
}

// State returns a fresh copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.state)
}

// Actions returns the registered action names, sorted.
func (s *Store) Actions() []string {
	return slices.Sorted(maps.Keys(s.reducers))
}

// HasAction reports whether a reducer is registered for action.
func (s *Store) HasAction(action string) bool {
	_, ok := s.reducers[action]
	return ok
}

// Dispatch runs the reducer registered for action. It fails with
// errors.ErrUnknownAction, leaving the state untouched, when there is none.
func (s *Store) Dispatch(action string, payload any) error {
	reducer, ok := s.reducers[action]
	if !ok {
		return errors.New("store.Dispatch", errors.KindUnknownAction, "unknown store action %q", action)
	}

	s.mu.Lock()
	prev := clone(s.state)
	s.mu.Unlock()

	result := reducer(clone(prev), payload)

	s.mu.Lock()
	s.state = clone(result)
	next := clone(s.state)
	subs := s.subs
	s.mu.Unlock()

	if s.bus != nil {
		eventPayload := payload
		if eventPayload == nil {
			eventPayload = map[string]any{}
		}
		s.bus.Emit(ChangeEvent, map[string]any{
			"action":  action,
			"payload": eventPayload,
			"prev":    prev,
			"next":    clone(next),
		})
	}

	for _, sub := range subs {
		sub.fn(clone(next), prev)
	}
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	sub := &subscriber{fn: fn}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if i := slices.Index(s.subs, sub); i >= 0 {
				s.subs = slices.Concat(s.subs[:i], s.subs[i+1:])
			}
		})
	}
}

func clone(s State) State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}
