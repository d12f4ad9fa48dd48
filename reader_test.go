package recjson_test

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/recjson"
	"github.com/reoring/recjson/recio"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/schema"
	"github.com/reoring/recjson/source"
	"github.com/reoring/recjson/transform"
	"github.com/reoring/recjson/value"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type closeTracker struct {
	io.Reader
	io.Writer
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func openReader(t *testing.T, input string, s schema.Schema, opts ...recjson.Option) *recjson.Reader {
	t.Helper()
	r := recjson.NewReader(append([]recjson.Option{recjson.WithLogger(quiet)}, opts...)...)
	require.NoError(t, r.Open(recio.IOContext{In: strings.NewReader(input), Schema: s}))
	return r
}

func readAll(t *testing.T, r *recjson.Reader) []*record.Record {
	t.Helper()
	var out []*record.Record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, rec)
	}
}

func TestReadEmptyArray(t *testing.T) {
	r := openReader(t, "[]", nil)
	_, err := r.Read()
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF, "end of stream is sticky")
	assert.Equal(t, int64(0), r.Count())
}

func TestReadEnvelopes(t *testing.T) {
	one := record.Of("a", 1)
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"array of one", `[{"a":1}]`, 1},
		{"array of two", "[{\"a\":1}\n,{\"a\":1}]", 2},
		{"single object", `{"a":1}`, 1},
		{"bare sequence", "{\"a\":1}\n{\"a\":1}\n{\"a\":1}", 3},
		{"empty input", "", 0},
		{"idle scalars skipped", `1 "x" {"a":1} true`, 1},
		{"nested envelope", `[[{"a":1}],[{"a":1}]]`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := readAll(t, openReader(t, tt.input, nil))
			require.Len(t, recs, tt.want)
			for _, rec := range recs {
				assert.True(t, one.Equal(rec), "got %v", rec.Keys())
			}
		})
	}
}

func TestReadCountsRecords(t *testing.T) {
	r := openReader(t, `{"a":1} {"a":2}`, nil)

	rec, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, value.Int32(1), rec.Get("a"))
	assert.Equal(t, int64(1), r.Count())

	rec, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, value.Int32(2), rec.Get("a"))
	assert.Equal(t, int64(2), r.Count())

	rec, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
	assert.Nil(t, rec)
	assert.Equal(t, int64(2), r.Count())
}

func TestReadSkipsNulls(t *testing.T) {
	recs := readAll(t, openReader(t, `{"a":null,"b":[1,null,2],"c":{"d":null,"e":"x"},"f":[null]}`, nil))
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.False(t, rec.Has("a"))
	assert.Equal(t, []string{"b", "c", "f"}, rec.Keys())
	assert.True(t, value.Equal(value.List{value.Int32(1), value.Int32(2)}, rec.Get("b")))
	c := rec.Get("c").(*value.Map)
	assert.Equal(t, []string{"e"}, c.Keys())
	assert.True(t, value.Equal(value.List{}, rec.Get("f")))
}

func TestReadNumericWidening(t *testing.T) {
	recs := readAll(t, openReader(t, `{"i":7810,"l":2147483648,"f":1.2,"d":3.141592653589793,"neg":-2147483648}`, nil))
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, value.Int32(7810), rec.Get("i"))
	assert.Equal(t, value.Int64(2147483648), rec.Get("l"))
	assert.Equal(t, value.Float32(1.2), rec.Get("f"))
	assert.Equal(t, value.Float64(3.141592653589793), rec.Get("d"))
	assert.Equal(t, value.Int32(-2147483648), rec.Get("neg"))
}

func TestReadNumericOverflow(t *testing.T) {
	for name, input := range map[string]string{
		"array mode": `[{"n":9223372036854775808}]`,
		"line mode":  `{"ok":1} {"n":1e400}`,
	} {
		t.Run(name, func(t *testing.T) {
			r := openReader(t, input, nil)
			var err error
			for err == nil {
				_, err = r.Read()
			}
			assert.ErrorIs(t, err, recjson.ErrOverflow)
			assert.NotErrorIs(t, err, io.EOF)
		})
	}
}

func TestReadMalformed(t *testing.T) {
	for name, input := range map[string]string{
		"trailing comma":  `[{"a":1,}]`,
		"double comma":    `{"a":1,,"b":2}`,
		"missing colon":   `{"a" 1}`,
		"stray close":     `{"a":1}}`,
		"unclosed array":  `[{"a":1}`,
		"unclosed object": `{"a":1`,
		"bad literal":     `{"a":tru}`,
	} {
		t.Run(name, func(t *testing.T) {
			for _, drv := range source.Names() {
				d, err := recjson.DriverByName(drv)
				require.NoError(t, err)
				r := openReader(t, input, nil, recjson.WithDriver(d))
				for err == nil {
					_, err = r.Read()
				}
				assert.ErrorIs(t, err, recjson.ErrMalformedInput, drv)
			}
		})
	}
}

func TestReadDriversAgree(t *testing.T) {
	input := `[{"zip":"78717","n":[1,2.5,{"k":true}],"big":1099511627776}]`
	var first []*record.Record
	for _, name := range source.Names() {
		d, err := recjson.DriverByName(name)
		require.NoError(t, err)
		recs := readAll(t, openReader(t, input, nil, recjson.WithDriver(d)))
		require.Len(t, recs, 1)
		if first == nil {
			first = recs
			continue
		}
		assert.True(t, first[0].Equal(recs[0]), name)
	}
}

func TestReadLimits(t *testing.T) {
	r := openReader(t, `[{"a":{"b":1}}]`, nil, recjson.WithLimits(2, 0))
	_, err := r.Read()
	assert.ErrorIs(t, err, recjson.ErrLimit)

	r = openReader(t, `[{"a":{"b":1}}]`, nil, recjson.WithLimits(3, 0))
	_, err = r.Read()
	assert.NoError(t, err)
}

func TestReadDuplicateKeysFromAttributes(t *testing.T) {
	r := recjson.NewReader(recjson.WithLogger(quiet))
	require.NoError(t, r.Open(recio.IOContext{
		In:         strings.NewReader(`{"a":1,"a":2}`),
		Attributes: map[string]string{recjson.AttrDuplicateKeys: "error"},
	}))
	_, err := r.Read()
	assert.ErrorIs(t, err, recjson.ErrDuplicateKey)

	recs := readAll(t, openReader(t, `{"a":1,"a":2}`, nil))
	require.Len(t, recs, 1)
	assert.Equal(t, value.Int32(2), recs[0].Get("a"), "last value wins by default")
}

func upper(t *testing.T) transform.Operation {
	t.Helper()
	op, err := transform.Builtins().Lookup("upper", nil)
	require.NoError(t, err)
	return op
}

func TestReadWithSchemaFiltersAndTransforms(t *testing.T) {
	s := schema.New(
		schema.NewField("zip", schema.TypeString),
		schema.NewField("source", schema.TypeAuto, upper(t)),
		schema.NewField("county", schema.TypeAuto),
	)
	recs := readAll(t, openReader(t, `[{"zip":78717,"source":"relevate","skip":"me"}]`, s))
	require.Len(t, recs, 1)

	assert.True(t, record.Of("zip", "78717", "source", "RELEVATE").Equal(recs[0]))
	assert.False(t, recs[0].Has("skip"))
	assert.False(t, recs[0].Has("county"))
}

func TestReadSchemaFieldsSeeEarlierResults(t *testing.T) {
	cp, err := transform.Builtins().Lookup("copy", transform.Params{"from": "source"})
	require.NoError(t, err)
	s := schema.New(
		schema.NewField("source", schema.TypeAuto, upper(t)),
		schema.NewField("origin", schema.TypeAuto, cp),
	)
	recs := readAll(t, openReader(t, `{"source":"relevate"}`, s))
	require.Len(t, recs, 1)
	assert.Equal(t, value.String("RELEVATE"), recs[0].Get("origin"))
}

func TestReadSchemaConversionFailure(t *testing.T) {
	s := schema.New(schema.NewField("sqft", schema.TypeInt))
	r := openReader(t, `{"sqft":"large"}`, s)
	_, err := r.Read()
	assert.ErrorIs(t, err, recjson.ErrConversion)
}

func TestReadValidationThreshold(t *testing.T) {
	req, err := transform.Builtins().Lookup("required", nil)
	require.NoError(t, err)
	s := schema.New(schema.NewField("zip", schema.TypeAuto, req))
	input := `{"a":1} {"a":2} {"zip":"78717"}`

	r := recjson.NewReader(recjson.WithLogger(quiet))
	require.NoError(t, r.Open(recio.IOContext{In: strings.NewReader(input), Schema: s, ValidationThreshold: 2}))
	recs := readAll(t, r)
	assert.Len(t, recs, 3)

	r = recjson.NewReader(recjson.WithLogger(quiet))
	require.NoError(t, r.Open(recio.IOContext{In: strings.NewReader(input), Schema: s, ValidationThreshold: 1}))
	_, err = r.Read()
	require.NoError(t, err)
	_, err = r.Read()
	assert.ErrorIs(t, err, recjson.ErrValidation)
}

type hookLog struct {
	calls []string
	fail  string
}

func (h *hookLog) op(name string) transform.Operation {
	return transform.Func{OpName: name, Fn: func(v value.Value, ctx *transform.Context) (value.Value, error) {
		h.calls = append(h.calls, name+":"+strings.Repeat("*", int(ctx.RecordCount)))
		if h.fail == name {
			return nil, recjson.ErrSchema
		}
		return v, nil
	}}
}

func TestReadHooksRunOnce(t *testing.T) {
	h := &hookLog{}
	s := schema.New(schema.NewField("a", schema.TypeAuto)).
		WithBeforeFirst(h.op("first")).
		WithAfterLast(h.op("last"))

	r := openReader(t, `[{"a":1},{"a":2}]`, s)
	recs := readAll(t, r)
	require.Len(t, recs, 2)
	_, err := r.Read()
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, []string{"first:", "last:**"}, h.calls)
}

func TestReadAfterLastFailureReportedOnce(t *testing.T) {
	h := &hookLog{fail: "last"}
	s := schema.New(schema.NewField("a", schema.TypeAuto)).WithAfterLast(h.op("last"))

	r := openReader(t, `{"a":1}`, s)
	_, err := r.Read()
	require.NoError(t, err)

	_, err = r.Read()
	assert.ErrorIs(t, err, recjson.ErrSchema)
	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
	assert.Len(t, h.calls, 1)
}

func TestReaderLifecycle(t *testing.T) {
	r := recjson.NewReader()
	_, err := r.Read()
	assert.ErrorIs(t, err, recjson.ErrPrecondition, "read before open")

	err = r.Open(recio.IOContext{})
	assert.ErrorIs(t, err, recjson.ErrPrecondition, "open without a stream")

	in := &closeTracker{Reader: strings.NewReader(`{"a":1}`)}
	require.NoError(t, r.Open(recio.IOContext{In: in, Logger: quiet}))
	assert.ErrorIs(t, r.Open(recio.IOContext{In: in}), recjson.ErrPrecondition, "open twice")

	r.Close(true)
	r.Close(true)
	assert.Equal(t, 1, in.closed)

	_, err = r.Read()
	assert.ErrorIs(t, err, recjson.ErrPrecondition, "read after close")
}

func TestReaderCloseKeepsStream(t *testing.T) {
	in := &closeTracker{Reader: strings.NewReader(`{"a":1}`)}
	r := recjson.NewReader(recjson.WithLogger(quiet))
	require.NoError(t, r.Open(recio.IOContext{In: in}))
	r.Close(false)
	assert.Equal(t, 0, in.closed)
}

func TestReaderRejectsBadAttributes(t *testing.T) {
	r := recjson.NewReader()
	err := r.Open(recio.IOContext{
		In:         bytes.NewReader(nil),
		Attributes: map[string]string{recjson.AttrMaxDepth: "deep"},
	})
	assert.ErrorIs(t, err, recjson.ErrPrecondition)
}
