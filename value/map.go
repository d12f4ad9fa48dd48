package value

// Map is a string-keyed map that remembers insertion order.
// The zero value is not usable; construct with NewMap.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty Map sized for n entries.
func NewMap(n ...int) *Map {
	size := 0
	if len(n) > 0 {
		size = n[0]
	}
	return &Map{keys: make([]string, 0, size), vals: make(map[string]Value, size)}
}

// Put stores v under key. A key that already exists keeps its position.
func (m *Map) Put(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key and whether it was present.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

// Delete removes key, preserving the order of the remaining keys.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string { return append([]string(nil), m.keys...) }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := NewMap(len(m.keys))
	for _, k := range m.keys {
		out.Put(k, Clone(m.vals[k]))
	}
	return out
}

// Equal reports whether both maps hold the same key set with equal values.
// Insertion order is ignored.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if len(m.keys) != len(o.keys) {
		return false
	}
	for k, v := range m.vals {
		ov, ok := o.vals[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}
