// Package dedupe merges keyed records and detects key collisions.
package dedupe

import (
	"sync"
)

// Policy decides which record survives a key collision.
type Policy int

const (
	// KeepLast replaces the stored record with the newcomer.
	KeepLast Policy = iota
	// KeepFirst ignores the newcomer.
	KeepFirst
)

// Merger collapses records sharing a key. Surviving records keep the
// position of the first record seen for their key. Safe for concurrent use.
type Merger[K comparable, V any] struct {
	mu          sync.Mutex
	key         func(V) K
	policy      Policy
	index       map[K]int
	values      []V
	overwritten int
}

// NewMerger creates a merger keyed by key. The default policy is KeepLast.
func NewMerger[K comparable, V any](key func(V) K, opts ...Option) *Merger[K, V] {
	s := settings{policy: KeepLast}
	for _, opt := range opts {
		opt(&s)
	}
	return &Merger[K, V]{
		key:    key,
		policy: s.policy,
		index:  make(map[K]int, s.capacity),
		values: make([]V, 0, s.capacity),
	}
}

// Add records v and reports whether its key was already present.
func (m *Merger[K, V]) Add(v V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.key(v)
	if i, ok := m.index[k]; ok {
		if m.policy == KeepLast {
			m.values[i] = v
		}
		m.overwritten++
		return true
	}
	m.index[k] = len(m.values)
	m.values = append(m.values, v)
	return false
}

// AddAll records every element of vs in order.
func (m *Merger[K, V]) AddAll(vs []V) {
	for _, v := range vs {
		m.Add(v)
	}
}

// Values returns a copy of the surviving records.
func (m *Merger[K, V]) Values() []V {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]V, len(m.values))
	copy(out, m.values)
	return out
}

// Len returns the number of distinct keys.
func (m *Merger[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Collisions returns how many Add calls hit an existing key.
func (m *Merger[K, V]) Collisions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overwritten
}

// Repeated returns the keys that occur more than once in vs, in the order
// their second occurrence was found.
func Repeated[K comparable, V any](vs []V, key func(V) K) []K {
	seen := make(map[K]int, len(vs))
	var out []K
	for _, v := range vs {
		k := key(v)
		seen[k]++
		if seen[k] == 2 {
			out = append(out, k)
		}
	}
	return out
}
