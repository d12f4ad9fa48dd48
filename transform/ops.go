package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

// Func adapts a function to the Operation interface.
type Func struct {
	OpName string
	Fn     func(v value.Value, ctx *Context) (value.Value, error)
}

func (f Func) Name() string { return f.OpName }

func (f Func) Apply(v value.Value, ctx *Context) (value.Value, error) { return f.Fn(v, ctx) }

// Params are the string-valued arguments of an operation declaration.
type Params map[string]string

// Factory builds an Operation from its parameters.
type Factory func(p Params) (Operation, error)

// Catalog maps operation names to factories.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog { return &Catalog{factories: map[string]Factory{}} }

// Builtins returns a new Catalog holding the built-in operations.
func Builtins() *Catalog {
	c := NewCatalog()
	c.Register("upper", stringOp("upper", cases.Upper(language.Und).String))
	c.Register("lower", stringOp("lower", cases.Lower(language.Und).String))
	c.Register("trim", stringOp("trim", strings.TrimSpace))
	c.Register("nfc", stringOp("nfc", norm.NFC.String))
	c.Register("snake", stringOp("snake", strcase.ToSnake))
	c.Register("camel", stringOp("camel", strcase.ToLowerCamel))
	c.Register("pascal", stringOp("pascal", strcase.ToCamel))
	c.Register("kebab", stringOp("kebab", strcase.ToKebab))
	c.Register("default", newDefault)
	c.Register("copy", newCopy)
	c.Register("replace", newReplace)
	c.Register("required", newRequired)
	c.Register("length", newLength)
	c.Register("pattern", newPattern)
	c.Register("rfc3339", newRFC3339)
	c.Register("minRecords", newRecordBound("minRecords", func(n, bound int64) bool { return n >= bound }))
	c.Register("maxRecords", newRecordBound("maxRecords", func(n, bound int64) bool { return n <= bound }))
	return c
}

// Register adds or replaces a factory.
func (c *Catalog) Register(name string, f Factory) { c.factories[name] = f }

// Names lists registered operation names in order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.factories))
	for n := range c.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup builds the named operation.
func (c *Catalog) Lookup(name string, p Params) (Operation, error) {
	f, ok := c.factories[name]
	if !ok {
		return nil, rerrors.NewSchemaError(fmt.Sprintf("unknown operation %q", name), nil)
	}
	op, err := f(p)
	if err != nil {
		return nil, rerrors.NewSchemaError(fmt.Sprintf("operation %q", name), err)
	}
	return op, nil
}

// stringOp applies fn to String values; other kinds pass through.
func stringOp(name string, fn func(string) string) Factory {
	op := Func{OpName: name, Fn: func(v value.Value, _ *Context) (value.Value, error) {
		if s, ok := v.(value.String); ok {
			return value.String(fn(string(s))), nil
		}
		return v, nil
	}}
	return func(Params) (Operation, error) { return op, nil }
}

func param(p Params, key string) (string, error) {
	s, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	return s, nil
}

func optionalInt(p Params, key string) (int64, bool, error) {
	s, ok := p[key]
	if !ok || s == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parameter %q: %w", key, err)
	}
	return n, true, nil
}

func newDefault(p Params) (Operation, error) {
	s, err := param(p, "value")
	if err != nil {
		return nil, err
	}
	return Func{OpName: "default", Fn: func(v value.Value, _ *Context) (value.Value, error) {
		if value.IsNull(v) {
			return value.String(s), nil
		}
		return v, nil
	}}, nil
}

func newCopy(p Params) (Operation, error) {
	from, err := param(p, "from")
	if err != nil {
		return nil, err
	}
	return Func{OpName: "copy", Fn: func(_ value.Value, ctx *Context) (value.Value, error) {
		if ctx.Record == nil {
			return nil, nil
		}
		return ctx.Record.Get(from), nil
	}}, nil
}

func newReplace(p Params) (Operation, error) {
	expr, err := param(p, "pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	with := p["with"]
	return Func{OpName: "replace", Fn: func(v value.Value, _ *Context) (value.Value, error) {
		if s, ok := v.(value.String); ok {
			return value.String(re.ReplaceAllString(string(s), with)), nil
		}
		return v, nil
	}}, nil
}

func newRequired(Params) (Operation, error) {
	return Func{OpName: "required", Fn: func(v value.Value, ctx *Context) (value.Value, error) {
		if value.IsNull(v) {
			return v, rerrors.NewValidationError(ctx.Key, "value is required")
		}
		return v, nil
	}}, nil
}

func newLength(p Params) (Operation, error) {
	minLen, hasMin, err := optionalInt(p, "min")
	if err != nil {
		return nil, err
	}
	maxLen, hasMax, err := optionalInt(p, "max")
	if err != nil {
		return nil, err
	}
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("length needs min or max")
	}
	return Func{OpName: "length", Fn: func(v value.Value, ctx *Context) (value.Value, error) {
		var n int64
		switch x := v.(type) {
		case nil, value.Null:
			return v, nil
		case value.List:
			n = int64(len(x))
		case *value.Map:
			n = int64(x.Len())
		default:
			s, _ := value.ScalarText(v)
			n = int64(utf8.RuneCountInString(s))
		}
		if hasMin && n < minLen {
			return v, rerrors.NewValidationError(ctx.Key, fmt.Sprintf("length %d below minimum %d", n, minLen))
		}
		if hasMax && n > maxLen {
			return v, rerrors.NewValidationError(ctx.Key, fmt.Sprintf("length %d above maximum %d", n, maxLen))
		}
		return v, nil
	}}, nil
}

func newPattern(p Params) (Operation, error) {
	expr, err := param(p, "pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return Func{OpName: "pattern", Fn: func(v value.Value, ctx *Context) (value.Value, error) {
		if value.IsNull(v) {
			return v, nil
		}
		s, ok := value.ScalarText(v)
		if !ok || !re.MatchString(s) {
			return v, rerrors.NewValidationError(ctx.Key, fmt.Sprintf("value does not match %s", re))
		}
		return v, nil
	}}, nil
}

func newRecordBound(name string, ok func(n, bound int64) bool) Factory {
	return func(p Params) (Operation, error) {
		s, err := param(p, "count")
		if err != nil {
			return nil, err
		}
		bound, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter \"count\": %w", err)
		}
		return Func{OpName: name, Fn: func(v value.Value, ctx *Context) (value.Value, error) {
			if !ok(ctx.RecordCount, bound) {
				return v, rerrors.NewValidationError("", fmt.Sprintf("%s %d violated by record count %d", name, bound, ctx.RecordCount))
			}
			return v, nil
		}}, nil
	}
}
