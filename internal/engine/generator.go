package engine

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

const indentUnit = "  "

// Generator writes JSON tokens into a buffer. In pretty mode members and
// elements go on their own lines indented by two spaces per level; empty
// containers stay "{}" and "[]".
type Generator struct {
	buf      *bytes.Buffer
	pretty   bool
	stack    []genFrame
	afterKey bool
	scratch  []byte
}

type genFrame struct {
	object bool
	n      int
}

// NewGenerator returns a Generator appending to buf.
func NewGenerator(buf *bytes.Buffer, pretty bool) *Generator {
	return &Generator{buf: buf, pretty: pretty}
}

// Depth returns the number of open containers.
func (g *Generator) Depth() int { return len(g.stack) }

func (g *Generator) newline(depth int) {
	if !g.pretty {
		return
	}
	g.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		g.buf.WriteString(indentUnit)
	}
}

func (g *Generator) beforeValue() error {
	if g.afterKey {
		g.afterKey = false
		return nil
	}
	if len(g.stack) == 0 {
		return nil
	}
	top := &g.stack[len(g.stack)-1]
	if top.object {
		return fmt.Errorf("generator: value inside object without a field name")
	}
	if top.n > 0 {
		g.buf.WriteByte(',')
	}
	top.n++
	g.newline(len(g.stack))
	return nil
}

func (g *Generator) closeContainer(object bool, c byte) error {
	n := len(g.stack)
	if n == 0 || g.stack[n-1].object != object || g.afterKey {
		return fmt.Errorf("generator: unbalanced %q", c)
	}
	f := g.stack[n-1]
	g.stack = g.stack[:n-1]
	if f.n > 0 {
		g.newline(len(g.stack))
	}
	g.buf.WriteByte(c)
	return nil
}

// StartObject writes '{'.
func (g *Generator) StartObject() error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.buf.WriteByte('{')
	g.stack = append(g.stack, genFrame{object: true})
	return nil
}

// EndObject writes '}'.
func (g *Generator) EndObject() error { return g.closeContainer(true, '}') }

// StartArray writes '['.
func (g *Generator) StartArray() error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.buf.WriteByte('[')
	g.stack = append(g.stack, genFrame{})
	return nil
}

// EndArray writes ']'.
func (g *Generator) EndArray() error { return g.closeContainer(false, ']') }

// FieldName writes a member name and its separator.
func (g *Generator) FieldName(name string) error {
	n := len(g.stack)
	if n == 0 || !g.stack[n-1].object || g.afterKey {
		return fmt.Errorf("generator: field name %q outside object", name)
	}
	top := &g.stack[n-1]
	if top.n > 0 {
		g.buf.WriteByte(',')
	}
	top.n++
	g.newline(n)
	if err := g.writeString(name); err != nil {
		return err
	}
	g.buf.WriteByte(':')
	if g.pretty {
		g.buf.WriteByte(' ')
	}
	g.afterKey = true
	return nil
}

// String writes a quoted, escaped string.
func (g *Generator) String(s string) error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	return g.writeString(s)
}

func (g *Generator) writeString(s string) error {
	b, err := gojson.MarshalWithOption(s, gojson.DisableHTMLEscape())
	if err != nil {
		return rerrors.NewConversionError("", "cannot encode string", err)
	}
	g.buf.Write(b)
	return nil
}

// Bool writes true or false.
func (g *Generator) Bool(b bool) error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.buf.WriteString(strconv.FormatBool(b))
	return nil
}

// Null writes null.
func (g *Generator) Null() error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.buf.WriteString("null")
	return nil
}

// Int writes an integer.
func (g *Generator) Int(i int64) error {
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.scratch = strconv.AppendInt(g.scratch[:0], i, 10)
	g.buf.Write(g.scratch)
	return nil
}

// Float writes a floating-point number at the given precision (32 or 64).
// The text always carries a fraction or an exponent so it reads back as a float.
func (g *Generator) Float(f float64, bitSize int) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return rerrors.NewConversionError("", fmt.Sprintf("cannot encode %v as JSON number", f), nil)
	}
	if err := g.beforeValue(); err != nil {
		return err
	}
	g.scratch = AppendFloat(g.scratch[:0], f, bitSize)
	g.buf.Write(g.scratch)
	return nil
}

// AppendFloat appends the shortest text for f that round-trips at bitSize,
// adding ".0" when the text would otherwise look integral.
func AppendFloat(dst []byte, f float64, bitSize int) []byte {
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, 'g', -1, bitSize)
	if !bytes.ContainsAny(dst[start:], ".eE") {
		dst = append(dst, '.', '0')
	}
	return dst
}

// EmitValue writes v. A nil Value is written as null.
func EmitValue(g *Generator, v value.Value) error {
	switch x := v.(type) {
	case nil, value.Null:
		return g.Null()
	case value.Bool:
		return g.Bool(bool(x))
	case value.Int32:
		return g.Int(int64(x))
	case value.Int64:
		return g.Int(int64(x))
	case value.Float32:
		return g.Float(float64(x), 32)
	case value.Float64:
		return g.Float(float64(x), 64)
	case value.String:
		return g.String(string(x))
	case value.List:
		if err := g.StartArray(); err != nil {
			return err
		}
		for _, e := range x {
			if err := EmitValue(g, e); err != nil {
				return err
			}
		}
		return g.EndArray()
	case *value.Map:
		return EmitMap(g, x)
	default:
		return rerrors.NewConversionError("", fmt.Sprintf("unsupported value %T", v), nil)
	}
}

// EmitMap writes m as an object, members in insertion order.
func EmitMap(g *Generator, m *value.Map) error {
	if m == nil {
		return g.Null()
	}
	if err := g.StartObject(); err != nil {
		return err
	}
	var err error
	m.Range(func(k string, v value.Value) bool {
		if err = g.FieldName(k); err != nil {
			return false
		}
		if err = EmitValue(g, v); err != nil {
			var re *rerrors.Error
			if errors.As(err, &re) && re.Path == "" {
				c := *re
				c.Path = k
				err = &c
			}
			return false
		}
		return true
	})
	if err != nil {
		return err
	}
	return g.EndObject()
}
