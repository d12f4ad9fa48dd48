// Package record provides Record, the unit of I/O: an ordered mapping from
// field name to value.Value.
package record

import (
	"github.com/reoring/recjson/value"
)

// Record is an ordered field-name to value mapping. Equality ignores order.
type Record struct {
	m *value.Map
}

// New returns an empty Record.
func New() *Record { return &Record{m: value.NewMap()} }

// FromMap wraps m as a Record without copying it. A nil map yields an empty Record.
func FromMap(m *value.Map) *Record {
	if m == nil {
		m = value.NewMap()
	}
	return &Record{m: m}
}

// Of builds a Record from alternating key/value pairs, lifting natives with value.Of.
// It panics on an odd argument count or an unsupported value; intended for fixtures.
func Of(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("record.Of: odd number of arguments")
	}
	r := New()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("record.Of: keys must be strings")
		}
		r.Put(k, value.MustOf(kv[i+1]))
	}
	return r
}

// Get returns the value for key, or nil when the key is absent.
func (r *Record) Get(key string) value.Value {
	v, _ := r.m.Get(key)
	return v
}

// Lookup returns the value for key and whether it is present.
func (r *Record) Lookup(key string) (value.Value, bool) { return r.m.Get(key) }

// Put sets key to v.
func (r *Record) Put(key string, v value.Value) { r.m.Put(key, v) }

// Delete removes key.
func (r *Record) Delete(key string) { r.m.Delete(key) }

// Has reports whether key is present (even when mapped to an explicit Null).
func (r *Record) Has(key string) bool { return r.m.Has(key) }

// Keys returns field names in insertion order.
func (r *Record) Keys() []string { return r.m.Keys() }

// Len returns the number of fields.
func (r *Record) Len() int { return r.m.Len() }

// Range iterates fields in insertion order until fn returns false.
func (r *Record) Range(fn func(key string, v value.Value) bool) { r.m.Range(fn) }

// Retain drops every field whose name is not in names.
func (r *Record) Retain(names ...string) {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	for _, k := range r.m.Keys() {
		if _, ok := keep[k]; !ok {
			r.m.Delete(k)
		}
	}
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record { return &Record{m: r.m.Clone()} }

// AsMap exposes the underlying ordered map. Mutations are visible to the Record.
func (r *Record) AsMap() *value.Map { return r.m }

// Equal reports whether both records hold the same fields with equal values.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.m.Equal(o.m)
}
