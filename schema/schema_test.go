package schema

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/transform"
	"github.com/reoring/recjson/value"
)

func fieldNames(fs []Field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name()
	}
	return out
}

func TestLoadFileAndClassify(t *testing.T) {
	d, err := LoadFile("testdata/property.yaml", nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"type": "JSON", "pretty": "true"}, d.Format())
	assert.Len(t, d.BeforeOperations(), 1)
	assert.Empty(t, d.AfterOperations())
	assert.Len(t, d.BeforeFirstOperations(), 1)
	assert.Len(t, d.AfterLastOperations(), 1)

	fields, err := d.Classify(record.Of("zip", "78717", "source", "Relevate"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "source", "sqft"}, fieldNames(fields))

	fields, err = d.Classify(record.Of("zip", "78717", "source", "mls"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "county"}, fieldNames(fields))

	fields, err = d.Classify(record.Of("zip", "78717"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zip", "county"}, fieldNames(fields), "absent classifier field does not match")
}

func TestClassifyWithoutFallback(t *testing.T) {
	d := New()
	require.NoError(t, d.AddFieldList("only", map[string]string{"source": "x"}, NewField("a", TypeAuto)))
	_, err := d.Classify(record.Of("source", "y"))
	assert.ErrorIs(t, err, rerrors.ErrSchema)
}

func TestClassifierOrderFollowsDeclaration(t *testing.T) {
	d := New()
	require.NoError(t, d.AddFieldList("first", map[string]string{"k": "^a"}, NewField("one", TypeAuto)))
	require.NoError(t, d.AddFieldList("second", map[string]string{"k": "^ab"}, NewField("two", TypeAuto)))

	fields, err := d.Classify(record.Of("k", "abc"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, fieldNames(fields))
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"no fields":      "format:\n  type: JSON\n",
		"unknown op":     "fields:\n  - name: a\n    operations: [shout]\n",
		"unknown type":   "fields:\n  - name: a\n    type: decimal\n",
		"duplicate key":  "fields:\n  - name: a\n    name: b\n",
		"duplicate name": "fields:\n  - name: a\n  - name: a\n",
		"bad classifier": "fieldLists:\n  - classifier: {a: \"(\"}\n    fields: [{name: a}]\n",
		"op without op":  "fields:\n  - name: a\n    operations: [{min: 1}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, rerrors.ErrSchema)
		})
	}
}

func TestDuplicateKeyPositions(t *testing.T) {
	_, err := LoadBytes([]byte("fields:\n  - name: a\n    name: b\n"), nil)
	var dk *DuplicateKeyError
	require.ErrorAs(t, err, &dk)
	assert.Equal(t, "name", dk.Key)
	assert.Equal(t, 2, dk.FirstLine)
	assert.Equal(t, 3, dk.Line)
}

func TestLoadUsesCustomCatalog(t *testing.T) {
	cat := transform.NewCatalog()
	cat.Register("star", func(transform.Params) (transform.Operation, error) {
		return transform.Func{OpName: "star", Fn: func(value.Value, *transform.Context) (value.Value, error) {
			return value.String("*"), nil
		}}, nil
	})
	d, err := LoadBytes([]byte("fields:\n  - name: a\n    operations: [star]\n"), cat)
	require.NoError(t, err)

	fields, err := d.Classify(record.New())
	require.NoError(t, err)
	require.Len(t, fields[0].Operations(), 1)
	assert.Equal(t, "star", fields[0].Operations()[0].Name())

	_, err = LoadBytes([]byte("fields:\n  - name: a\n    operations: [upper]\n"), cat)
	assert.ErrorIs(t, err, rerrors.ErrSchema)
}

func TestCoerce(t *testing.T) {
	list := value.List{value.Int32(1)}
	tests := []struct {
		typ  DataType
		in   value.Value
		want value.Value
	}{
		{TypeAuto, value.Int32(1), value.Int32(1)},
		{TypeString, value.Int32(78717), value.String("78717")},
		{TypeString, value.Bool(true), value.String("true")},
		{TypeInt, value.String(" 42 "), value.Int32(42)},
		{TypeInt, value.Int64(7), value.Int32(7)},
		{TypeInt, value.Float64(3), value.Int32(3)},
		{TypeLong, value.Int32(5), value.Int64(5)},
		{TypeLong, value.String("1099511627776"), value.Int64(1 << 40)},
		{TypeFloat, value.Int32(2), value.Float32(2)},
		{TypeFloat, value.String("1.5"), value.Float32(1.5)},
		{TypeDouble, value.Float32(0.5), value.Float64(0.5)},
		{TypeBoolean, value.String("TRUE"), value.Bool(true)},
		{TypeBoolean, value.Bool(false), value.Bool(false)},
		{TypeList, value.String("x"), value.List{value.String("x")}},
		{TypeList, list, list},
		{TypeInt, value.Null{}, value.Null{}},
	}
	for _, tt := range tests {
		got, err := tt.typ.Coerce(tt.in)
		require.NoError(t, err, "%s <- %v", tt.typ, tt.in)
		assert.True(t, value.Equal(tt.want, got), "%s <- %v: got %v", tt.typ, tt.in, got)
	}
}

func TestCoerceFailures(t *testing.T) {
	tests := []struct {
		typ DataType
		in  value.Value
	}{
		{TypeInt, value.Int64(math.MaxInt32 + 1)},
		{TypeInt, value.Float32(1.5)},
		{TypeInt, value.String("abc")},
		{TypeInt, value.Bool(true)},
		{TypeFloat, value.Float64(1e300)},
		{TypeBoolean, value.String("yes please")},
		{TypeBoolean, value.Int32(1)},
		{TypeString, value.List{}},
		{TypeMap, value.String("x")},
	}
	for _, tt := range tests {
		_, err := tt.typ.Coerce(tt.in)
		assert.ErrorIs(t, err, rerrors.ErrConversion, "%s <- %v", tt.typ, tt.in)
	}
}

func TestFieldCoerceNamesPath(t *testing.T) {
	_, err := NewField("sqft", TypeInt).Coerce(value.String("big"))
	var re *rerrors.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "sqft", re.Path)
}

func TestParseDataType(t *testing.T) {
	typ, err := ParseDataType("Integer")
	require.NoError(t, err)
	assert.Equal(t, TypeInt, typ)

	typ, err = ParseDataType("")
	require.NoError(t, err)
	assert.Equal(t, TypeAuto, typ)
}
