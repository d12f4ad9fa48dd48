package transform

import (
	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

// Operation transforms or validates a single value. v is nil when the key is
// absent from the record.
type Operation interface {
	Name() string
	Apply(v value.Value, ctx *Context) (value.Value, error)
}

// Field is a named destination with its own operations and target type.
type Field interface {
	Name() string
	Operations() []Operation
	Coerce(v value.Value) (value.Value, error)
}

// Surgeon applies operation lists.
type Surgeon struct{}

// Operate seeds the pipeline with the value under ctx.Key and applies ops in
// order. A validation failure leaves the value unchanged and is counted against
// the context threshold; once exceeded the failure is returned. Any other error
// is returned immediately.
func (Surgeon) Operate(ops []Operation, ctx *Context) (value.Value, error) {
	var v value.Value
	if ctx.Record != nil && ctx.Key != "" {
		v = ctx.Record.Get(ctx.Key)
	}
	for _, op := range ops {
		out, err := op.Apply(v, ctx)
		if err != nil {
			if !rerrors.IsValidation(err) {
				return nil, err
			}
			ctx.failures++
			if ctx.threshold >= 0 && ctx.failures > ctx.threshold {
				return nil, err
			}
			ctx.logger().Warn("validation failure tolerated",
				"operation", op.Name(),
				"key", ctx.Key,
				"record", ctx.RecordCount,
				"failures", ctx.failures,
				"threshold", ctx.threshold,
				"error", err)
			continue
		}
		v = out
	}
	return v, nil
}

// RunBatch applies record-stream operations such as before-first and
// after-last hooks. They see no record, only ctx.RecordCount.
func (s Surgeon) RunBatch(ops []Operation, ctx *Context) error {
	if len(ops) == 0 {
		return nil
	}
	saved, key := ctx.Record, ctx.Key
	ctx.Record, ctx.Key = nil, ""
	defer func() { ctx.Record, ctx.Key = saved, key }()
	_, err := s.Operate(ops, ctx)
	return err
}

// Transformer rewrites a record in place field by field, as done before writing.
type Transformer struct {
	Before  []Operation
	After   []Operation
	Surgeon Surgeon
}

// Transform runs [Before, field operations, After] for each field in order and
// stores every non-null result, coerced to the field type, back into ctx.Record.
func (t Transformer) Transform(ctx *Context, fields []Field) error {
	for _, f := range fields {
		ctx.Key = f.Name()
		v, err := t.Surgeon.Operate(t.Pipeline(f), ctx)
		if err != nil {
			return err
		}
		if value.IsNull(v) {
			continue
		}
		cv, err := f.Coerce(v)
		if err != nil {
			return err
		}
		ctx.Record.Put(f.Name(), cv)
	}
	return nil
}

// Pipeline returns the operation list applied to f.
func (t Transformer) Pipeline(f Field) []Operation {
	fops := f.Operations()
	ops := make([]Operation, 0, len(t.Before)+len(fops)+len(t.After))
	ops = append(ops, t.Before...)
	ops = append(ops, fops...)
	return append(ops, t.After...)
}
