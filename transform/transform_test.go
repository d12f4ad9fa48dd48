package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/value"
)

type testField struct {
	name string
	ops  []Operation
}

func (f testField) Name() string                              { return f.name }
func (f testField) Operations() []Operation                   { return f.ops }
func (f testField) Coerce(v value.Value) (value.Value, error) { return v, nil }

func mustOp(t *testing.T, name string, p Params) Operation {
	t.Helper()
	op, err := Builtins().Lookup(name, p)
	require.NoError(t, err)
	return op
}

func TestStringOperations(t *testing.T) {
	tests := []struct {
		op   string
		in   value.Value
		want value.Value
	}{
		{"upper", value.String("relevate"), value.String("RELEVATE")},
		{"lower", value.String("ÀB"), value.String("àb")},
		{"trim", value.String("  x \t"), value.String("x")},
		{"nfc", value.String("e\u0301"), value.String("\u00e9")},
		{"snake", value.String("ZipCode"), value.String("zip_code")},
		{"camel", value.String("zip_code"), value.String("zipCode")},
		{"pascal", value.String("zip_code"), value.String("ZipCode")},
		{"kebab", value.String("ZipCode"), value.String("zip-code")},
		{"upper", value.Int32(3), value.Int32(3)},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := mustOp(t, tt.op, nil).Apply(tt.in, NewContext(0, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookupUnknownOperation(t *testing.T) {
	_, err := Builtins().Lookup("shout", nil)
	assert.ErrorIs(t, err, rerrors.ErrSchema)

	_, err = Builtins().Lookup("length", Params{})
	assert.ErrorIs(t, err, rerrors.ErrSchema)

	_, err = Builtins().Lookup("pattern", Params{"pattern": "("})
	assert.ErrorIs(t, err, rerrors.ErrSchema)
}

func TestSurgeonSeedsFromRecord(t *testing.T) {
	ctx := NewContext(0, nil).At(record.Of("source", "relevate"), "source")
	ops := []Operation{mustOp(t, "upper", nil), mustOp(t, "replace", Params{"pattern": "E", "with": "3"})}

	got, err := Surgeon{}.Operate(ops, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("R3L3VAT3"), got)
}

func TestSurgeonAbsentKeyAndDefault(t *testing.T) {
	ctx := NewContext(0, nil).At(record.New(), "county")
	got, err := Surgeon{}.Operate(nil, ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = Surgeon{}.Operate([]Operation{mustOp(t, "default", Params{"value": "TRAVIS"})}, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("TRAVIS"), got)
}

func TestSurgeonCopy(t *testing.T) {
	ctx := NewContext(0, nil).At(record.Of("zip5", "78717"), "zip")
	got, err := Surgeon{}.Operate([]Operation{mustOp(t, "copy", Params{"from": "zip5"})}, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("78717"), got)
}

func TestValidationThreshold(t *testing.T) {
	ops := []Operation{mustOp(t, "required", nil)}

	ctx := NewContext(1, nil).At(record.New(), "zip")
	_, err := Surgeon{}.Operate(ops, ctx)
	require.NoError(t, err, "first failure is within threshold")
	assert.Equal(t, 1, ctx.Failures())

	_, err = Surgeon{}.Operate(ops, ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)
	assert.Equal(t, 2, ctx.Failures())

	unlimited := NewContext(-1, nil).At(record.New(), "zip")
	for i := 0; i < 5; i++ {
		_, err := Surgeon{}.Operate(ops, unlimited)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, unlimited.Failures())
}

func TestNonValidationErrorIsFatal(t *testing.T) {
	boom := Func{OpName: "boom", Fn: func(value.Value, *Context) (value.Value, error) {
		return nil, rerrors.NewConversionError("x", "boom", nil)
	}}
	_, err := Surgeon{}.Operate([]Operation{boom}, NewContext(-1, nil).At(record.New(), "x"))
	assert.ErrorIs(t, err, rerrors.ErrConversion)
}

func TestLengthAndPattern(t *testing.T) {
	ctx := NewContext(0, nil).At(record.New(), "zip")
	length := mustOp(t, "length", Params{"min": "5", "max": "5"})
	pattern := mustOp(t, "pattern", Params{"pattern": `^\d+$`})

	_, err := length.Apply(value.String("78717"), ctx)
	assert.NoError(t, err)
	_, err = length.Apply(value.String("787"), ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)
	_, err = length.Apply(value.List{value.Int32(1)}, ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)

	_, err = pattern.Apply(value.Int32(78717), ctx)
	assert.NoError(t, err)
	_, err = pattern.Apply(value.String("787a"), ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)
	_, err = pattern.Apply(nil, ctx)
	assert.NoError(t, err)
}

func TestRunBatchRecordBounds(t *testing.T) {
	ctx := NewContext(0, nil)
	ctx.RecordCount = 3

	err := Surgeon{}.RunBatch([]Operation{mustOp(t, "minRecords", Params{"count": "1"})}, ctx)
	assert.NoError(t, err)

	err = Surgeon{}.RunBatch([]Operation{mustOp(t, "maxRecords", Params{"count": "2"})}, ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)
}

func TestTransformerInPlace(t *testing.T) {
	r := record.Of("zip", " 78717 ", "source", "relevate", "skip", "me")
	tr := Transformer{Before: []Operation{mustOp(t, "trim", nil)}}
	fields := []Field{
		testField{name: "zip"},
		testField{name: "source", ops: []Operation{mustOp(t, "upper", nil)}},
		testField{name: "county"},
	}

	ctx := NewContext(0, nil)
	ctx.Record = r
	require.NoError(t, tr.Transform(ctx, fields))

	assert.True(t, r.Equal(record.Of("zip", "78717", "source", "RELEVATE", "skip", "me")))
	assert.False(t, r.Has("county"))
}

func TestCatalogNames(t *testing.T) {
	names := Builtins().Names()
	assert.Contains(t, names, "upper")
	assert.Contains(t, names, "maxRecords")
	assert.IsIncreasing(t, names)
}

func TestRFC3339(t *testing.T) {
	ctx := NewContext(0, nil).At(record.New(), "at")
	op := mustOp(t, "rfc3339", nil)

	got, err := op.Apply(value.String("2024-03-01T09:30:00+09:00"), ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("2024-03-01T00:30:00Z"), got)

	got, err = op.Apply(value.String("2024-03-01T00:30:00.500000Z"), ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("2024-03-01T00:30:00.5Z"), got)

	got, err = op.Apply(value.Int64(1709253000), ctx)
	require.NoError(t, err)
	assert.Equal(t, value.Int64(1709253000), got)

	_, err = op.Apply(value.String("yesterday"), ctx)
	assert.ErrorIs(t, err, rerrors.ErrValidation)

	custom := mustOp(t, "rfc3339", Params{"layout": "2006-01-02"})
	got, err = custom.Apply(value.String("2024-03-01"), ctx)
	require.NoError(t, err)
	assert.Equal(t, value.String("2024-03-01T00:00:00Z"), got)
}
