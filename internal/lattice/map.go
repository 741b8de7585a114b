package lattice

// Map is an insertion-order-preserving map from canonical (lowercased)
// field name to Entry, mirroring the role IndexMap plays in the reference
// implementation: field order must survive so `--preserve_input_sort_order`
// can be honored downstream, while lookups stay O(1).
type Map struct {
	keys    []string
	entries map[string]Entry
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Entry)}
}

// Get returns the entry for key and whether it was present.
func (m *Map) Get(key string) (Entry, bool) {
	e, ok := m.entries[key]
	return e, ok
}

// Set inserts or updates key, preserving the position of an existing key
// and appending new keys at the end.
func (m *Map) Set(key string, entry Entry) {
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = entry
}

// Delete removes key, if present.
func (m *Map) Delete(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice must not be
// mutated by the caller.
func (m *Map) Keys() []string {
	return m.keys
}

// Each calls fn for every entry in insertion order.
func (m *Map) Each(fn func(key string, entry Entry)) {
	for _, k := range m.keys {
		fn(k, m.entries[k])
	}
}

// Clone returns a deep-enough copy: the key order and top-level entries are
// copied, and nested Fields maps are cloned recursively so mutating the
// clone never touches the original.
func (m *Map) Clone() *Map {
	cp := NewMap()
	for _, k := range m.keys {
		e := m.entries[k]
		if e.Fields != nil {
			e.Fields = e.Fields.Clone()
		}
		cp.Set(k, e)
	}
	return cp
}
