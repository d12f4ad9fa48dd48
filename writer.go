package recjson

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"

	eng "github.com/reoring/recjson/internal/engine"
	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/recio"
	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/transform"
)

// Writer serializes records as JSON, either inside one array ("[", records
// separated by "\n,", "]") or as bare objects separated by newlines.
type Writer struct {
	opts  Options
	state state
	ctx   recio.IOContext
	log   *slog.Logger

	out         *bufio.Writer
	buf         bytes.Buffer
	arrayMode   bool
	tctx        *transform.Context
	transformer transform.Transformer

	count           int64
	beforeFirstDone bool
}

var _ recio.RecordWriter = (*Writer)(nil)

// NewWriter returns an unopened Writer.
func NewWriter(opts ...Option) *Writer { return &Writer{opts: buildOptions(opts)} }

// Open binds the writer to ctx.Out and, in array mode, writes the opening bracket.
func (w *Writer) Open(ctx recio.IOContext) error {
	if w.state != stateUnopened {
		return rerrors.NewPreconditionError("open", fmt.Sprintf("writer is %s", w.state))
	}
	if ctx.Out == nil {
		return rerrors.NewPreconditionError("open", "no output stream")
	}
	o, err := OptionsFromAttributes(ctx.MergedAttributes(), w.opts)
	if err != nil {
		return err
	}
	w.opts = o
	w.ctx = ctx
	w.log = o.logger(ctx.Logger)
	w.arrayMode = o.IsSingleObject()
	w.out = bufio.NewWriter(ctx.Out)
	w.tctx = transform.NewContext(ctx.ValidationThreshold, w.log)
	if s := ctx.Schema; s != nil {
		w.transformer = transform.Transformer{Before: s.BeforeOperations(), After: s.AfterOperations()}
	}
	if w.arrayMode {
		if err := w.out.WriteByte('['); err != nil {
			return fmt.Errorf("open: %w", err)
		}
	}
	w.state = stateOpened
	w.log.Debug("json writer opened", "pretty", o.Pretty, "array", w.arrayMode, "generation", o.Generation)
	return nil
}

// Write serializes rec. With a schema, rec is transformed in place and reduced
// to the classified field names before it is written.
func (w *Writer) Write(rec *record.Record) error {
	if w.state != stateOpened {
		return rerrors.NewPreconditionError("write", fmt.Sprintf("writer is %s", w.state))
	}
	if rec == nil {
		return rerrors.NewPreconditionError("write", "nil record")
	}
	s := w.ctx.Schema
	if !w.beforeFirstDone {
		if s != nil {
			w.tctx.RecordCount = 0
			if err := (transform.Surgeon{}).RunBatch(s.BeforeFirstOperations(), w.tctx); err != nil {
				return withOp(err, "write")
			}
		}
		w.beforeFirstDone = true
	}

	if s != nil {
		fields, err := s.Classify(rec)
		if err != nil {
			return withOp(err, "write")
		}
		w.tctx.Record = rec
		w.tctx.RecordCount = w.count + 1
		if err := w.transformer.Transform(w.tctx, fields); err != nil {
			return withOp(err, "write")
		}
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name()
		}
		rec.Retain(names...)
	}

	w.buf.Reset()
	if w.count > 0 {
		if w.arrayMode {
			w.buf.WriteString("\n,")
		} else {
			w.buf.WriteByte('\n')
		}
	}
	if err := eng.EmitMap(eng.NewGenerator(&w.buf, w.opts.Pretty), rec.AsMap()); err != nil {
		return withOp(err, "write")
	}
	if _, err := w.out.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int64 { return w.count }

// Close runs after-last operations with the final count, closes the array
// envelope and flushes. Failures are logged, never returned. Calling Close
// again, or on a writer never opened, does nothing.
func (w *Writer) Close(closeStream bool) {
	if w.state != stateOpened {
		return
	}
	w.state = stateClosed

	if s := w.ctx.Schema; s != nil {
		w.tctx.RecordCount = w.count
		if err := (transform.Surgeon{}).RunBatch(s.AfterLastOperations(), w.tctx); err != nil {
			w.log.Error("after-last operations failed", "records", w.count, "error", err)
		}
	}
	if w.arrayMode {
		if err := w.out.WriteByte(']'); err != nil {
			w.log.Error("closing array envelope failed", "error", err)
		}
	}
	if err := w.out.Flush(); err != nil {
		w.log.Error("flushing output failed", "error", err)
	}
	if closeStream {
		if c, ok := w.ctx.Out.(io.Closer); ok {
			if err := c.Close(); err != nil {
				w.log.Error("closing output stream failed", "error", err)
			}
		}
	}
	w.log.Debug("json writer closed", "records", w.count)
}
