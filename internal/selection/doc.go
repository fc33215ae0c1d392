// Package selection computes selection changes as immutable events.
//
// A selection is a *Set snapshot. Replace, Add, Remove and Toggle each take
// the old snapshot plus the elements of one user action and return an Event
// carrying the old and new snapshots and the Added/Removed differences. For
// every event Added and Removed are disjoint and Old - Removed + Added equals
// Selection.
//
// Add and Remove return the old snapshot itself as the new selection when the
// action changes nothing, so consumers can skip work with a pointer compare.
// Replace defers computing Added and Removed until first use.
//
// Model wraps the functions above into the mutable "current selection" of a
// data set and delivers non-empty events to listeners.
package selection
