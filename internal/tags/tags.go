// Package tags implements the key/value map attached to every primitive.
//
// A Map keeps its pairs in one flat slice (k0, v0, k1, v1, ...) behind an
// atomic pointer. Writers build a complete replacement slice and publish it
// with a single store, serialized by a per-map mutex. Readers load the
// pointer once and work on that snapshot, so they never block and never see
// a half-written slice. Lookups are linear; primitives rarely carry more
// than a couple dozen tags.
package tags

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// shared backing slice for every empty map
var empty = []string{}

// Tag is one key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Map is a copy-on-write tag map. The zero value is an empty map ready to
// use. A Map must not be copied after first use.
type Map struct {
	mu sync.Mutex // serializes writers only
	kv atomic.Pointer[[]string]
}

// New returns a map holding the given pairs. Invalid pairs are skipped.
func New(pairs ...Tag) *Map {
	m := &Map{}
	for _, t := range pairs {
		_, _, _ = m.Put(t.Key, t.Value)
	}
	return m
}

// FromMap returns a map holding the entries of src in key order.
func FromMap(src map[string]string) *Map {
	m := &Map{}
	_ = m.PutAll(src)
	return m
}

func (m *Map) snapshot() []string {
	if p := m.kv.Load(); p != nil {
		return *p
	}
	return empty
}

func (m *Map) publish(kv []string) {
	if len(kv) == 0 {
		kv = empty
	}
	m.kv.Store(&kv)
}

func indexOf(kv []string, key string) int {
	for i := 0; i < len(kv); i += 2 {
		if kv[i] == key {
			return i
		}
	}
	return -1
}

// Get returns the value stored for key.
func (m *Map) Get(key string) (string, bool) {
	kv := m.snapshot()
	if i := indexOf(kv, key); i >= 0 {
		return kv[i+1], true
	}
	return "", false
}

// Value returns the value for key or "" when absent.
func (m *Map) Value(key string) string {
	v, _ := m.Get(key)
	return v
}

// ContainsKey reports whether key is present.
func (m *Map) ContainsKey(key string) bool {
	return indexOf(m.snapshot(), key) >= 0
}

// Put stores value under key and returns the previous value, if any.
// An empty key or value is rejected with ErrInvalidTag.
func (m *Map) Put(key, value string) (prev string, existed bool, err error) {
	if key == "" || value == "" {
		return "", false, fmt.Errorf("put %q=%q: %w", key, value, ErrInvalidTag)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kv := m.snapshot()
	if i := indexOf(kv, key); i >= 0 {
		prev = kv[i+1]
		if prev == value {
			return prev, true, nil
		}
		next := make([]string, len(kv))
		copy(next, kv)
		next[i+1] = value
		m.publish(next)
		return prev, true, nil
	}
	next := make([]string, len(kv), len(kv)+2)
	copy(next, kv)
	next = append(next, key, value)
	m.publish(next)
	return "", false, nil
}

// PutAll stores every entry of src. Keys are applied in sorted order so the
// resulting iteration order is deterministic. The first invalid entry stops
// the call; entries before it remain stored.
func (m *Map) PutAll(src map[string]string) error {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, _, err := m.Put(k, src[k]); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes key and returns the value it held.
func (m *Map) Remove(key string) (prev string, existed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kv := m.snapshot()
	i := indexOf(kv, key)
	if i < 0 {
		return "", false
	}
	prev = kv[i+1]
	next := make([]string, 0, len(kv)-2)
	next = append(next, kv[:i]...)
	next = append(next, kv[i+2:]...)
	m.publish(next)
	return prev, true
}

// Clear removes every pair.
func (m *Map) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publish(empty)
}

// Len returns the number of pairs.
func (m *Map) Len() int {
	return len(m.snapshot()) / 2
}

// IsEmpty reports whether the map holds no pairs.
func (m *Map) IsEmpty() bool {
	return m.Len() == 0
}

// All iterates the pairs present when All was called. Writes made while the
// loop runs are not observed by it.
func (m *Map) All() iter.Seq2[string, string] {
	kv := m.snapshot()
	return func(yield func(string, string) bool) {
		for i := 0; i < len(kv); i += 2 {
			if !yield(kv[i], kv[i+1]) {
				return
			}
		}
	}
}

// Keys returns the keys in iteration order.
func (m *Map) Keys() []string {
	kv := m.snapshot()
	keys := make([]string, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		keys = append(keys, kv[i])
	}
	return keys
}

// Entries returns a copy of the pairs in iteration order.
func (m *Map) Entries() []Tag {
	kv := m.snapshot()
	out := make([]Tag, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out = append(out, Tag{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// Map returns the pairs as a Go map.
func (m *Map) Map() map[string]string {
	kv := m.snapshot()
	out := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

// Equal reports whether both maps hold the same pairs, ignoring order.
func (m *Map) Equal(o *Map) bool {
	a, b := m.snapshot(), o.snapshot()
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i += 2 {
		j := indexOf(b, a[i])
		if j < 0 || b[j+1] != a[i+1] {
			return false
		}
	}
	return true
}

func (m *Map) String() string {
	kv := m.snapshot()
	var sb strings.Builder
	sb.WriteByte('{')
	for i := 0; i < len(kv); i += 2 {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(kv[i])
		sb.WriteByte('=')
		sb.WriteString(kv[i+1])
	}
	sb.WriteByte('}')
	return sb.String()
}
