package common

// BiMap is a two-way lookup between two label sets.
//
// Every key maps to exactly one value and every value maps back to exactly one
// key. Putting a pair that reuses an existing key or value drops the pair it
// shadows, so both directions always agree.
type BiMap[K comparable, V comparable] struct {
	forward map[K]V
	reverse map[V]K
}

// NewBiMap creates an empty BiMap.
func NewBiMap[K comparable, V comparable]() *BiMap[K, V] {
	return &BiMap[K, V]{
		forward: make(map[K]V),
		reverse: make(map[V]K),
	}
}

// Put associates k with v in both directions.
func (m *BiMap[K, V]) Put(k K, v V) {
	if old, ok := m.forward[k]; ok {
		delete(m.reverse, old)
	}

	if old, ok := m.reverse[v]; ok {
		delete(m.forward, old)
	}

	m.forward[k] = v
	m.reverse[v] = k
}

// Value returns the value stored for k.
func (m *BiMap[K, V]) Value(k K) (V, bool) {
	v, ok := m.forward[k]
	return v, ok
}

// Key returns the key stored for v.
func (m *BiMap[K, V]) Key(v V) (K, bool) {
	k, ok := m.reverse[v]
	return k, ok
}

// Len returns the number of pairs.
func (m *BiMap[K, V]) Len() int {
	return len(m.forward)
}
