package statemachine

import (
	"sync"
)

// StateFn represents a state function following Rob Pike's pattern: the
// state IS the function, and each invocation returns the next state
// function (nil to terminate).
type StateFn[T any] func(*T) StateFn[T]

// StateMachine is a small thread-safe wrapper holding an entity and its
// current state function.
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mutex   sync.RWMutex
}

// New creates a state machine for the given entity starting at the given
// state.
func New[T any](entity *T, initial StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initial,
	}
}

// Dispatch executes the current state function once and transitions to
// whatever it returns.
func (sm *StateMachine[T]) Dispatch() {
	sm.mutex.RLock()
	current := sm.stateFn
	sm.mutex.RUnlock()

	if current == nil {
		return
	}

	next := current(sm.entity)

	sm.mutex.Lock()
	sm.stateFn = next
	sm.mutex.Unlock()
}

// Current returns the current state function.
func (sm *StateMachine[T]) Current() StateFn[T] {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.stateFn
}

// Set replaces the current state function without executing anything.
func (sm *StateMachine[T]) Set(stateFn StateFn[T]) {
	sm.mutex.Lock()
	sm.stateFn = stateFn
	sm.mutex.Unlock()
}
