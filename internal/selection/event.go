package selection

import "sync"

// Op names the user action that produced an Event.
type Op int

const (
	OpReplace Op = iota
	OpAdd
	OpRemove
	OpToggle
)

func (op Op) String() string {
	switch op {
	case OpReplace:
		return "replace"
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Event describes one selection change. It is immutable once built and safe
// for concurrent readers; the returned sets must not be modified.
type Event[T comparable] struct {
	op      Op
	source  any
	old     *Set[T]
	current *Set[T]
	added   func() *Set[T]
	removed func() *Set[T]
}

// Replace makes elems the whole selection. Added and Removed are computed on
// first access, once, whichever goroutine gets there first.
func Replace[T comparable](source any, old *Set[T], elems []T) *Event[T] {
	old = orEmpty(old)
	current := NewSet(elems...)
	return &Event[T]{
		op:      OpReplace,
		source:  source,
		old:     old,
		current: current,
		added:   sync.OnceValue(func() *Set[T] { return current.minus(old) }),
		removed: sync.OnceValue(func() *Set[T] { return old.minus(current) }),
	}
}

// Add extends old by elems. When nothing new is added the resulting
// selection is old itself.
func Add[T comparable](source any, old *Set[T], elems []T) *Event[T] {
	old = orEmpty(old)
	added := newBuilder[T](len(elems))
	for _, e := range elems {
		if !old.Contains(e) {
			added.add(e)
		}
	}
	current := old
	addedSet := added.build()
	if !addedSet.IsEmpty() {
		b := builderFrom(old)
		for e := range addedSet.All() {
			b.add(e)
		}
		current = b.build()
	}
	return fixed(OpAdd, source, old, current, addedSet, EmptySet[T]())
}

// Remove drops elems from old. When none of them was selected the resulting
// selection is old itself.
func Remove[T comparable](source any, old *Set[T], elems []T) *Event[T] {
	old = orEmpty(old)
	removed := newBuilder[T](len(elems))
	for _, e := range elems {
		if old.Contains(e) {
			removed.add(e)
		}
	}
	current := old
	removedSet := removed.build()
	if !removedSet.IsEmpty() {
		current = old.minus(removedSet)
	}
	return fixed(OpRemove, source, old, current, EmptySet[T](), removedSet)
}

// Toggle flips the membership of every element of elems in sequence. An
// element listed twice is flipped twice and ends up unchanged.
func Toggle[T comparable](source any, old *Set[T], elems []T) *Event[T] {
	old = orEmpty(old)
	work := builderFrom(old)
	added := newBuilder[T](0)
	removed := newBuilder[T](0)
	for _, e := range elems {
		if work.remove(e) {
			// undo an earlier insertion rather than recording a removal
			if !added.remove(e) {
				removed.add(e)
			}
			continue
		}
		work.add(e)
		if !removed.remove(e) {
			added.add(e)
		}
	}
	return fixed(OpToggle, source, old, work.build(), added.build(), removed.build())
}

func fixed[T comparable](op Op, source any, old, current, added, removed *Set[T]) *Event[T] {
	return &Event[T]{
		op:      op,
		source:  source,
		old:     old,
		current: current,
		added:   func() *Set[T] { return added },
		removed: func() *Set[T] { return removed },
	}
}

func orEmpty[T comparable](s *Set[T]) *Set[T] {
	if s == nil {
		return EmptySet[T]()
	}
	return s
}

// Op returns the action that produced the event.
func (e *Event[T]) Op() Op { return e.op }

// Source is the object the selection belongs to, typically the data set.
func (e *Event[T]) Source() any { return e.source }

// Old is the selection before the change.
func (e *Event[T]) Old() *Set[T] { return e.old }

// Selection is the selection after the change.
func (e *Event[T]) Selection() *Set[T] { return e.current }

// Added holds the elements in Selection but not in Old.
func (e *Event[T]) Added() *Set[T] { return e.added() }

// Removed holds the elements in Old but not in Selection.
func (e *Event[T]) Removed() *Set[T] { return e.removed() }

// IsNop reports whether the event changes nothing.
func (e *Event[T]) IsNop() bool {
	return e.Added().IsEmpty() && e.Removed().IsEmpty()
}
