package recjson

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	eng "github.com/reoring/recjson/internal/engine"
	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/recio"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/transform"
	"github.com/reoring/recjson/value"
)

type state int

const (
	stateUnopened state = iota
	stateOpened
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUnopened:
		return "unopened"
	case stateOpened:
		return "opened"
	default:
		return "closed"
	}
}

// Reader reads records from a JSON stream holding a single object, an array
// of objects, or a sequence of bare objects. Null members and null list
// elements are dropped; numbers are narrowed to the smallest fitting kind.
type Reader struct {
	opts  Options
	state state
	ctx   recio.IOContext
	log   *slog.Logger

	src        eng.TokenSource
	tctx       *transform.Context
	surgeon    transform.Surgeon
	arrayDepth int

	count           int64
	beforeFirstDone bool
	exhausted       bool
}

var _ recio.RecordReader = (*Reader)(nil)

// NewReader returns an unopened Reader.
func NewReader(opts ...Option) *Reader { return &Reader{opts: buildOptions(opts)} }

// Open binds the reader to ctx.In. Format attributes from the schema and the
// context override the constructor options.
func (r *Reader) Open(ctx recio.IOContext) error {
	if r.state != stateUnopened {
		return rerrors.NewPreconditionError("open", fmt.Sprintf("reader is %s", r.state))
	}
	if ctx.In == nil {
		return rerrors.NewPreconditionError("open", "no input stream")
	}
	o, err := OptionsFromAttributes(ctx.MergedAttributes(), r.opts)
	if err != nil {
		return err
	}
	r.opts = o
	r.ctx = ctx
	r.log = o.logger(ctx.Logger)

	r.src = o.driver().NewReader(ctx.In)
	if eo := o.enforcement(); eo.Enabled() {
		eo.IssueSink = func(si eng.SimpleIssue) {
			r.log.Warn("input issue", "code", si.Code, "path", si.Path, "offset", si.Offset, "message", si.Message)
		}
		r.src = eng.WrapWithEnforcement(r.src, eo)
	}
	r.tctx = transform.NewContext(ctx.ValidationThreshold, r.log)
	r.state = stateOpened
	r.log.Debug("json reader opened", "driver", o.driver().Name(), "schema", ctx.Schema != nil)
	return nil
}

// Read returns the next record, or io.EOF once the input holds no further
// object. After-last operations run on the call that first observes the end;
// their failure is returned from that call and io.EOF from every later one.
func (r *Reader) Read() (*record.Record, error) {
	if r.state != stateOpened {
		return nil, rerrors.NewPreconditionError("read", fmt.Sprintf("reader is %s", r.state))
	}
	if r.exhausted {
		return nil, io.EOF
	}
	s := r.ctx.Schema
	if !r.beforeFirstDone {
		if s != nil {
			r.tctx.RecordCount = 0
			if err := r.surgeon.RunBatch(s.BeforeFirstOperations(), r.tctx); err != nil {
				return nil, withOp(err, "read")
			}
		}
		r.beforeFirstDone = true
	}

	m, err := r.nextObject()
	if errors.Is(err, io.EOF) {
		r.exhausted = true
		if s != nil {
			r.tctx.RecordCount = r.count
			if err := r.surgeon.RunBatch(s.AfterLastOperations(), r.tctx); err != nil {
				return nil, withOp(err, "read")
			}
		}
		return nil, io.EOF
	}
	if err != nil {
		return nil, withOp(err, "read")
	}

	rec, err := r.assemble(m)
	if err != nil {
		return nil, withOp(err, "read")
	}
	r.count++
	return rec, nil
}

// nextObject skips envelope brackets and idle scalars until an object starts,
// then builds it.
func (r *Reader) nextObject() (*value.Map, error) {
	for {
		tok, err := r.src.NextToken()
		if errors.Is(err, io.EOF) {
			if r.arrayDepth > 0 {
				return nil, rerrors.NewMalformedInputError(r.src.Location(), io.ErrUnexpectedEOF)
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, eng.AsMalformed(r.src, err)
		}
		switch tok.Kind {
		case eng.KindBeginArray:
			r.arrayDepth++
		case eng.KindEndArray:
			r.arrayDepth--
		case eng.KindBeginObject:
			return eng.BuildObject(r.src)
		}
	}
}

// assemble turns a raw object into the output record. Without a schema the raw
// object is the record. With one, each classified field is produced by its
// operation pipeline; non-null results are coerced and written both to the raw
// record, so later fields can see them, and to the output.
func (r *Reader) assemble(m *value.Map) (*record.Record, error) {
	raw := record.FromMap(m)
	s := r.ctx.Schema
	if s == nil {
		return raw, nil
	}
	fields, err := s.Classify(raw)
	if err != nil {
		return nil, err
	}
	tr := transform.Transformer{Before: s.BeforeOperations(), After: s.AfterOperations()}
	out := record.New()
	r.tctx.Record = raw
	r.tctx.RecordCount = r.count + 1
	for _, f := range fields {
		r.tctx.Key = f.Name()
		v, err := r.surgeon.Operate(tr.Pipeline(f), r.tctx)
		if err != nil {
			return nil, err
		}
		if value.IsNull(v) {
			continue
		}
		cv, err := f.Coerce(v)
		if err != nil {
			return nil, err
		}
		raw.Put(f.Name(), cv)
		out.Put(f.Name(), cv)
	}
	return out, nil
}

// Count returns the number of records returned so far.
func (r *Reader) Count() int64 { return r.count }

// Close releases the reader. It never fails; a failure closing the stream is
// logged. Calling Close again, or on a reader never opened, does nothing.
func (r *Reader) Close(closeStream bool) {
	if r.state != stateOpened {
		return
	}
	r.state = stateClosed
	if !closeStream {
		return
	}
	if c, ok := r.ctx.In.(io.Closer); ok {
		if err := c.Close(); err != nil {
			r.log.Error("closing input stream failed", "error", err)
		}
	}
}

func withOp(err error, op string) error {
	var re *rerrors.Error
	if errors.As(err, &re) && re.Op == "" {
		return re.WithOp(op)
	}
	return err
}
