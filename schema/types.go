package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

// DataType is the declared type of a field.
type DataType string

const (
	TypeAuto    DataType = "auto"
	TypeString  DataType = "string"
	TypeInt     DataType = "int"
	TypeLong    DataType = "long"
	TypeFloat   DataType = "float"
	TypeDouble  DataType = "double"
	TypeBoolean DataType = "boolean"
	TypeList    DataType = "list"
	TypeMap     DataType = "map"
)

// ParseDataType resolves a type name, case-insensitively. Empty means auto.
func ParseDataType(s string) (DataType, error) {
	switch t := DataType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeAuto, nil
	case TypeAuto, TypeString, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBoolean, TypeList, TypeMap:
		return t, nil
	case "integer":
		return TypeInt, nil
	case "bool":
		return TypeBoolean, nil
	}
	return "", rerrors.NewSchemaError(fmt.Sprintf("unknown type %q", s), nil)
}

// Coerce converts v to t. Nil and Null pass through unchanged.
func (t DataType) Coerce(v value.Value) (value.Value, error) {
	if value.IsNull(v) {
		return v, nil
	}
	var (
		out value.Value
		err error
	)
	switch t {
	case TypeAuto, "":
		return v, nil
	case TypeString:
		s, ok := value.ScalarText(v)
		if !ok {
			return nil, mismatch(t, v, nil)
		}
		return value.String(s), nil
	case TypeInt:
		var n int64
		if n, err = toInt(v); err == nil {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, mismatch(t, v, fmt.Errorf("%d out of int32 range", n))
			}
			out = value.Int32(n)
		}
	case TypeLong:
		var n int64
		if n, err = toInt(v); err == nil {
			out = value.Int64(n)
		}
	case TypeFloat:
		var f float64
		if f, err = toFloat(v); err == nil {
			if math.Abs(f) > math.MaxFloat32 {
				return nil, mismatch(t, v, fmt.Errorf("%g out of float32 range", f))
			}
			out = value.Float32(f)
		}
	case TypeDouble:
		var f float64
		if f, err = toFloat(v); err == nil {
			out = value.Float64(f)
		}
	case TypeBoolean:
		switch x := v.(type) {
		case value.Bool:
			out = x
		case value.String:
			b, perr := strconv.ParseBool(strings.TrimSpace(string(x)))
			if perr != nil {
				err = perr
			} else {
				out = value.Bool(b)
			}
		default:
			err = fmt.Errorf("not a boolean")
		}
	case TypeList:
		if l, ok := v.(value.List); ok {
			return l, nil
		}
		return value.List{v}, nil
	case TypeMap:
		if m, ok := v.(*value.Map); ok {
			return m, nil
		}
		err = fmt.Errorf("not a map")
	default:
		err = fmt.Errorf("unknown type")
	}
	if err != nil {
		return nil, mismatch(t, v, err)
	}
	return out, nil
}

func mismatch(t DataType, v value.Value, err error) error {
	return rerrors.NewConversionError("", fmt.Sprintf("cannot convert %s to %s", v.Kind(), t), err)
}

func toInt(v value.Value) (int64, error) {
	switch x := v.(type) {
	case value.Int32:
		return int64(x), nil
	case value.Int64:
		return int64(x), nil
	case value.Float32:
		return floatToInt(float64(x))
	case value.Float64:
		return floatToInt(float64(x))
	case value.String:
		s := strings.TrimSpace(string(x))
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return floatToInt(f)
	}
	return 0, fmt.Errorf("not numeric")
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not integral", f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%v out of int64 range", f)
	}
	return int64(f), nil
}

func toFloat(v value.Value) (float64, error) {
	switch x := v.(type) {
	case value.Int32:
		return float64(x), nil
	case value.Int64:
		return float64(x), nil
	case value.Float32:
		return float64(x), nil
	case value.Float64:
		return float64(x), nil
	case value.String:
		return strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
	}
	return 0, fmt.Errorf("not numeric")
}
