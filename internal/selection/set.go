package selection

import (
	"iter"
	"slices"
)

// Set is an immutable, insertion-ordered set. Two selections are the same
// snapshot iff their *Set pointers are equal; Equal compares contents.
type Set[T comparable] struct {
	items []T
	index map[T]int
}

// NewSet returns a set of elems with duplicates collapsed; the first
// occurrence fixes the position.
func NewSet[T comparable](elems ...T) *Set[T] {
	b := newBuilder[T](len(elems))
	for _, e := range elems {
		b.add(e)
	}
	return b.build()
}

// EmptySet returns a new empty set.
func EmptySet[T comparable]() *Set[T] {
	return &Set[T]{}
}

// Len returns the number of elements; a nil set is empty.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// IsEmpty reports whether the set has no elements.
func (s *Set[T]) IsEmpty() bool { return s.Len() == 0 }

// Contains reports whether e is in the set.
func (s *Set[T]) Contains(e T) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[e]
	return ok
}

// All iterates the elements in insertion order.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for _, e := range s.items {
			if !yield(e) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements in insertion order.
func (s *Set[T]) Slice() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.items)
}

// Equal reports whether both sets hold the same elements.
func (s *Set[T]) Equal(o *Set[T]) bool {
	if s == o {
		return true
	}
	if s.Len() != o.Len() {
		return false
	}
	for _, e := range s.items {
		if !o.Contains(e) {
			return false
		}
	}
	return true
}

// minus returns the elements of s not in o, preserving order.
func (s *Set[T]) minus(o *Set[T]) *Set[T] {
	b := newBuilder[T](0)
	for _, e := range s.items {
		if !o.Contains(e) {
			b.add(e)
		}
	}
	return b.build()
}

// builder is the only mutable form of a set. Removed elements stay in items
// until build; an entry is live only while index points back at its slot.
type builder[T comparable] struct {
	items []T
	index map[T]int
}

func newBuilder[T comparable](n int) *builder[T] {
	return &builder[T]{items: make([]T, 0, n), index: make(map[T]int, n)}
}

func builderFrom[T comparable](s *Set[T]) *builder[T] {
	b := newBuilder[T](s.Len())
	for e := range s.All() {
		b.add(e)
	}
	return b
}

func (b *builder[T]) has(e T) bool {
	_, ok := b.index[e]
	return ok
}

func (b *builder[T]) add(e T) bool {
	if b.has(e) {
		return false
	}
	b.index[e] = len(b.items)
	b.items = append(b.items, e)
	return true
}

func (b *builder[T]) remove(e T) bool {
	if !b.has(e) {
		return false
	}
	delete(b.index, e)
	return true
}

func (b *builder[T]) build() *Set[T] {
	items := make([]T, 0, len(b.index))
	index := make(map[T]int, len(b.index))
	for i, e := range b.items {
		if j, ok := b.index[e]; ok && j == i {
			index[e] = len(items)
			items = append(items, e)
		}
	}
	return &Set[T]{items: items, index: index}
}
