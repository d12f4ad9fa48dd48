// Package value defines the closed set of value kinds a record field can hold.
//
// Value is a sealed interface: only the types in this package implement it, so a
// type switch over Null, Bool, Int32, Int64, Float32, Float64, String, List and
// *Map is exhaustive.
package value

// Kind enumerates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a parsed JSON fragment or a record field value.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is an explicit JSON null.
type Null struct{}

// Bool is a JSON boolean.
type Bool bool

// Int32 is an integer that fits the signed 32-bit range.
type Int32 int32

// Int64 is an integer outside the signed 32-bit range.
type Int64 int64

// Float32 is a fractional number whose digits survive a 32-bit round trip.
type Float32 float32

// Float64 is a fractional number that needs 64-bit precision.
type Float64 float64

// String is a JSON string.
type String string

// List is an ordered sequence of values.
type List []Value

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Int32) Kind() Kind   { return KindInt32 }
func (Int64) Kind() Kind   { return KindInt64 }
func (Float32) Kind() Kind { return KindFloat32 }
func (Float64) Kind() Kind { return KindFloat64 }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (*Map) Kind() Kind    { return KindMap }

func (Null) sealed()    {}
func (Bool) sealed()    {}
func (Int32) sealed()   {}
func (Int64) sealed()   {}
func (Float32) sealed() {}
func (Float64) sealed() {}
func (String) sealed()  {}
func (List) sealed()    {}
func (*Map) sealed()    {}

// IsNull reports whether v is absent (nil) or an explicit Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Equal compares two values structurally. Kinds must match exactly, so Int32(1)
// and Int64(1) differ. Maps compare by key set, independent of insertion order.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Int32:
		return x == b.(Int32)
	case Int64:
		return x == b.(Int64)
	case Float32:
		return x == b.(Float32)
	case Float64:
		return x == b.(Float64)
	case String:
		return x == b.(String)
	case List:
		y := b.(List)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		return x.Equal(b.(*Map))
	}
	return false
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch x := v.(type) {
	case List:
		if x == nil {
			return List(nil)
		}
		out := make(List, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case *Map:
		return x.Clone()
	default:
		return v
	}
}
