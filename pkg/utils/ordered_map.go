package utils

// OrderedMap is a map that remembers insertion order. The Jack compiler walks
// class fields, subroutines and program classes many times over (once to
// register symbols, again to lower to VM code, again for the optional XML
// dump); a plain Go map would give each of those passes a different,
// non-deterministic order and make two compilations of the same source
// produce different label numbering. Keeping insertion order makes the
// compiler's output reproducible.
type OrderedMap[K comparable, V any] struct {
	index   map[K]int
	entries []MapEntry[K, V]
}

// MapEntry is one key/value pair, exposed so callers can range over
// Entries() without a second lookup.
type MapEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// NewOrderedMap returns an empty, ready to use OrderedMap.
func NewOrderedMap[K comparable, V any]() OrderedMap[K, V] {
	return OrderedMap[K, V]{index: map[K]int{}}
}

// Set inserts or updates the value for 'key'. Updating an existing key keeps
// its original position.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if m.index == nil {
		m.index = map[K]int{}
	}

	if pos, found := m.index[key]; found {
		m.entries[pos].Value = value
		return
	}

	m.index[key] = len(m.entries)
	m.entries = append(m.entries, MapEntry[K, V]{Key: key, Value: value})
}

// Get looks up 'key', the second return mirrors the built-in map idiom.
func (m OrderedMap[K, V]) Get(key K) (V, bool) {
	if pos, found := m.index[key]; found {
		return m.entries[pos].Value, true
	}
	var zero V
	return zero, false
}

// Len returns the number of entries currently stored.
func (m OrderedMap[K, V]) Len() int { return len(m.entries) }

// Entries returns the key/value pairs in insertion order. The returned slice
// is owned by the caller and safe to range over while mutating the map.
func (m OrderedMap[K, V]) Entries() []MapEntry[K, V] {
	out := make([]MapEntry[K, V], len(m.entries))
	copy(out, m.entries)
	return out
}

// Values returns just the values, in insertion order.
func (m OrderedMap[K, V]) Values() []V {
	out := make([]V, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Value
	}
	return out
}
