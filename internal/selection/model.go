package selection

import (
	"slices"
	"sync"
)

// Listener receives every selection change that is not a no-op.
type Listener[T comparable] func(*Event[T])

// Model holds the current selection of one source and notifies listeners.
// Each change builds one Event from the selection current at that moment and
// publishes the new set before listeners run, so a listener reading
// Selection() sees the state the event describes or a later one.
type Model[T comparable] struct {
	source any

	mu      sync.Mutex // serializes changes
	current *Set[T]

	lmu       sync.RWMutex
	listeners []registered[T]
	nextID    int
}

type registered[T comparable] struct {
	id int
	fn Listener[T]
}

// NewModel returns an empty selection owned by source.
func NewModel[T comparable](source any) *Model[T] {
	return &Model[T]{
		source:  source,
		current: EmptySet[T](),
	}
}

// Selection returns the current snapshot.
func (m *Model[T]) Selection() *Set[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Listen registers l and returns a function that unregisters it. Listeners
// run in registration order on the goroutine that made the change.
func (m *Model[T]) Listen(l Listener[T]) (cancel func()) {
	m.lmu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners = append(m.listeners, registered[T]{id: id, fn: l})
	m.lmu.Unlock()
	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		m.listeners = slices.DeleteFunc(m.listeners, func(r registered[T]) bool { return r.id == id })
	}
}

// Set replaces the selection with elems.
func (m *Model[T]) Set(elems ...T) *Event[T] {
	return m.apply(func(old *Set[T]) *Event[T] { return Replace(m.source, old, elems) })
}

// Add adds elems to the selection.
func (m *Model[T]) Add(elems ...T) *Event[T] {
	return m.apply(func(old *Set[T]) *Event[T] { return Add(m.source, old, elems) })
}

// Remove removes elems from the selection.
func (m *Model[T]) Remove(elems ...T) *Event[T] {
	return m.apply(func(old *Set[T]) *Event[T] { return Remove(m.source, old, elems) })
}

// Toggle flips each of elems in turn.
func (m *Model[T]) Toggle(elems ...T) *Event[T] {
	return m.apply(func(old *Set[T]) *Event[T] { return Toggle(m.source, old, elems) })
}

// Clear empties the selection.
func (m *Model[T]) Clear() *Event[T] {
	return m.Set()
}

func (m *Model[T]) apply(build func(old *Set[T]) *Event[T]) *Event[T] {
	m.mu.Lock()
	ev := build(m.current)
	m.current = ev.Selection()
	m.mu.Unlock()

	if ev.IsNop() {
		return ev
	}
	m.lmu.RLock()
	ls := slices.Clone(m.listeners)
	m.lmu.RUnlock()
	for _, l := range ls {
		l.fn(ev)
	}
	return ev
}
