package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	rerrors "github.com/reoring/recjson/internal/errors"
)

// FromNumberText converts the text of a JSON number token into the narrowest
// kind that represents it exactly.
//
// Integer tokens become Int32 when they fit the signed 32-bit range and Int64
// otherwise. Tokens with a fraction or exponent become Float32 when the shortest
// 32-bit representation reads back as the same float64, and Float64 otherwise.
// Integers beyond int64 and fractions beyond float64 are overflow errors.
func FromNumberText(text string) (Value, error) {
	if isIntegral(text) {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return nil, rerrors.NewOverflowError(text)
			}
			return nil, rerrors.NewConversionError("", fmt.Sprintf("invalid number %q", text), err)
		}
		return narrowInt(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, rerrors.NewOverflowError(text)
		}
		return nil, rerrors.NewConversionError("", fmt.Sprintf("invalid number %q", text), err)
	}
	return narrowFloat(f), nil
}

func isIntegral(text string) bool {
	return !strings.ContainsAny(text, ".eE")
}

func narrowInt(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int32(n)
	}
	return Int64(n)
}

func narrowFloat(f float64) Value {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Float64(f)
	}
	n := float32(f)
	if math.IsInf(float64(n), 0) {
		return Float64(f)
	}
	back, err := strconv.ParseFloat(strconv.FormatFloat(float64(n), 'g', -1, 32), 64)
	if err == nil && back == f {
		return Float32(n)
	}
	return Float64(f)
}

// Of lifts a Go native into a Value. Supported inputs are nil, Value, bool,
// int, int32, int64, float32, float64, string, []any and map[string]any.
// Plain int follows the same 32/64-bit rule as parsed integers. Map keys of a
// map[string]any are inserted in unspecified order.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return narrowInt(int64(x)), nil
	case int32:
		return Int32(x), nil
	case int64:
		return Int64(x), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case string:
		return String(x), nil
	case []any:
		out := make(List, 0, len(x))
		for i, e := range x {
			ev, err := Of(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, ev)
		}
		return out, nil
	case map[string]any:
		m := NewMap(len(x))
		for k, e := range x {
			ev, err := Of(e)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			m.Put(k, ev)
		}
		return m, nil
	default:
		return nil, rerrors.NewConversionError("", fmt.Sprintf("unsupported type %T", v), nil)
	}
}

// MustOf is Of for literals in tests and fixtures; it panics on unsupported input.
func MustOf(v any) Value {
	out, err := Of(v)
	if err != nil {
		panic(err)
	}
	return out
}

// ScalarText renders a scalar as plain text (strings unquoted). It returns
// false for lists and maps.
func ScalarText(v Value) (string, bool) {
	switch x := v.(type) {
	case nil, Null:
		return "", true
	case Bool:
		return strconv.FormatBool(bool(x)), true
	case Int32:
		return strconv.FormatInt(int64(x), 10), true
	case Int64:
		return strconv.FormatInt(int64(x), 10), true
	case Float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), true
	case Float64:
		return strconv.FormatFloat(float64(x), 'g', -1, 64), true
	case String:
		return string(x), true
	case List, *Map:
		return "", false
	}
	return "", false
}
